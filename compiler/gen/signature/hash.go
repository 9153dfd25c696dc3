package signature

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/tabula-io/tabula/compiler/gen"
)

// hasherFor resolves the configured content hash. Any collision-resistant
// deterministic hash works for change detection; sha256 is the default,
// xxhash64 trades collision margin for speed on very large data sets.
func hasherFor(name string) (func([]byte) string, error) {
	switch name {
	case "sha256":
		return func(data []byte) string {
			sum := sha256.Sum256(data)
			return hex.EncodeToString(sum[:])
		}, nil
	case "md5":
		return func(data []byte) string {
			sum := md5.Sum(data)
			return hex.EncodeToString(sum[:])
		}, nil
	case "xxhash64":
		return func(data []byte) string {
			return strconv.FormatUint(xxhash.Sum64(data), 16)
		}, nil
	}
	return nil, gen.NewConfigError(OptionHash, name, "unknown hash; use sha256, md5 or xxhash64")
}
