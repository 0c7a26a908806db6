package content

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/mwantia/typedfs/data"
)

// Zstd wraps inner so that its bytes are stored zstd-compressed under
// suffix, for example Zstd(CBOR[Module]("wyil"), "wyil.zst").
func Zstd[T any](inner *Type[T], suffix string) *Type[T] {
	return NewType(suffix,
		func(id data.ID, r io.Reader) (T, error) {
			var zero T

			decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return zero, err
			}
			defer decoder.Close()

			return inner.DecodeValue(id, decoder)
		},
		func(w io.Writer, value T) error {
			encoder, err := zstd.NewWriter(w,
				zstd.WithEncoderLevel(zstd.SpeedDefault),
				zstd.WithEncoderConcurrency(1),
			)
			if err != nil {
				return err
			}

			if err := inner.EncodeValue(encoder, value); err != nil {
				encoder.Close()
				return err
			}
			return encoder.Close()
		},
	)
}
