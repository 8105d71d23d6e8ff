package hxhook

import (
	"errors"

	"github.com/pthm/hxhook/lib/encoding"
)

// Encoder is an alias for encoding.Encoder for convenience.
type Encoder = encoding.Encoder

// NewEncoder creates a new encoder with the given key.
func NewEncoder(key []byte) (*Encoder, error) {
	return encoding.NewEncoder(key)
}

// EncodeProfile seals p into a signed envelope, or an encrypted one when
// sensitive is set.
func EncodeProfile(enc *Encoder, p Profile, sensitive bool) (string, error) {
	return enc.Encode(p, sensitive)
}

// DecodeProfile opens an envelope produced by EncodeProfile.
func DecodeProfile(enc *Encoder, envelope string, sensitive bool) (Profile, error) {
	var p Profile
	if err := enc.Decode(envelope, sensitive, &p); err != nil {
		return Profile{}, wrapEncodingError(err)
	}
	return p, nil
}

// wrapEncodingError maps encoding package errors onto hxhook sentinels.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) {
		return ErrInvalidFormat
	}
	if errors.Is(err, encoding.ErrSignatureInvalid) {
		return ErrSignatureInvalid
	}
	if errors.Is(err, encoding.ErrDecryptFailed) {
		return ErrDecryptFailed
	}
	return err
}
