package vectorizer

import "errors"

var (
	// ErrEmptyCorpus is returned when there are no documents to fit.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrEmptyVocabulary is returned when stop words and the document
	// frequency band remove every term.
	ErrEmptyVocabulary = errors.New("empty vocabulary")

	// ErrInvalidParameter is returned for an out-of-range setting.
	ErrInvalidParameter = errors.New("invalid parameter")
)
