// Package ensemble runs the machine-learned phishing classifiers.
//
// A bundle holds one shared standard scaler and one or more trained models.
// Each model family implements the Classifier interface; the Ensemble scales
// a feature vector once, asks every classifier for a phishing probability
// and combines them with Combine: the mean probability, thresholded at 0.5.
//
// Bundles are loaded once at startup and shared read-only by every request.
package ensemble
