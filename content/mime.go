package content

import "strings"

const (
	MIMETextPlain         = "text/plain"
	MIMETextHTML          = "text/html"
	MIMETextCSV           = "text/csv"
	MIMEApplicationJSON   = "application/json"
	MIMEApplicationYAML   = "application/yaml"
	MIMEApplicationCBOR   = "application/cbor"
	MIMEApplicationXML    = "application/xml"
	MIMEApplicationTOML   = "application/toml"
	MIMEApplicationZip    = "application/zip"
	MIMEApplicationGZip   = "application/gzip"
	MIMEApplicationZstd   = "application/zstd"
	MIMEApplicationXTar   = "application/x-tar"
	MIMEApplicationStream = "application/octet-stream"
)

// suffixToMIME maps well known suffixes to MIME types.
var suffixToMIME = map[string]string{
	"txt":  MIMETextPlain,
	"md":   MIMETextPlain,
	"html": MIMETextHTML,
	"csv":  MIMETextCSV,
	"json": MIMEApplicationJSON,
	"yaml": MIMEApplicationYAML,
	"yml":  MIMEApplicationYAML,
	"cbor": MIMEApplicationCBOR,
	"xml":  MIMEApplicationXML,
	"toml": MIMEApplicationTOML,
	"zip":  MIMEApplicationZip,
	"gz":   MIMEApplicationGZip,
	"zst":  MIMEApplicationZstd,
	"tar":  MIMEApplicationXTar,
}

// MIMEType returns the MIME type stored alongside objects with the given
// suffix. Compound suffixes such as "wyil.zst" use their last part.
func MIMEType(suffix string) string {
	suffix = strings.ToLower(normalizeSuffix(suffix))
	if idx := strings.LastIndexByte(suffix, '.'); idx >= 0 {
		suffix = suffix[idx+1:]
	}

	if mime, ok := suffixToMIME[suffix]; ok {
		return mime
	}

	return MIMEApplicationStream
}
