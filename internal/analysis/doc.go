// Package analysis reduces recorded ball frames to scalar series and their
// spectra.
//
//   - [HeightProfile]: mean and maximum ball height per frame
//   - [PowerSpectrum]: magnitude spectrum of a series of any length
//   - [DominantFrequency]: strongest non-constant frequency of a sampled series
package analysis
