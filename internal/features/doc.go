// Package features converts parsed URLs into the fixed-length numeric
// vectors consumed by the classifier ensemble.
//
// The catalogue (Names) is part of the model contract: bundles are trained
// against this exact order and these normalisation divisors. Values are not
// clamped, so adversarial input may produce values above 1.
package features
