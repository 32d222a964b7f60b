// Package lexicon provides the lexicon-based scorers used by the analysis
// stage: an AFINN-style polarity scorer and an NRC-style emotion tagger.
//
// Both lexicons ship embedded in the binary and can be replaced by files in
// the same tab-separated format (see LoadAFINN and LoadNRC). Each scorer is
// a plain value built by its constructor; there is no package-level instance.
package lexicon
