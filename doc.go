// Package wde implements shape-preserving multivariate density estimation
// using a square-root wavelet series whose coefficients are derived from
// k-th nearest-neighbor ball volumes.
//
// The estimated density is the normalized square of a truncated wavelet
// expansion, so it is non-negative everywhere by construction. Coefficients
// are estimated directly from the data through nearest-neighbor ball-volume
// statistics; no binning or bandwidth selection is involved.
//
// Basic usage:
//
//	cfg := wde.DefaultConfig()
//	cfg.Basis = wde.NewHaar([]int{1, 1}) // 2-D Haar basis, base level 1
//	cfg.DeltaJ = 2
//	est, err := wde.New(cfg)
//	den, err := est.Fit(data)
//	// den.At(x) is the estimated density at x (always >= 0)
//
// Beyond the full fit, several model-selection strategies decide which
// detail (beta) coefficients survive:
//
//	den, err := est.FitMDL(data)       // minimum-description-length ranking
//	den, err := est.FitCV(data)        // cross-validated thresholding
//	den, err := est.FitIterative(data) // greedy level expansion
//
// FitCV is controlled by Config.Loss, Config.Ordering and Config.MultiLevel;
// see the Loss and Ordering constants for the available strategies.
//
// The wavelet family itself is pluggable: any implementation of the Basis
// interface can be used. NewHaar provides an orthonormal tensor-product
// Haar basis.
package wde
