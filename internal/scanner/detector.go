// Package scanner walks a repository tree, decides which files are readable
// text, and renders the directory structure for prompt assembly.
package scanner

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodingUTF8 is reported for empty files, valid UTF-8 and every
// inconclusive detection.
const EncodingUTF8 = "UTF-8"

// minConfidence is the lowest chardet confidence (0-100) we trust.
const minConfidence = 10

// sniffLen bounds how much of a file is inspected for NUL bytes.
const sniffLen = 8000

// binaryExtensions are never read.
var binaryExtensions = map[string]bool{
	// Images
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".svg": true, ".webp": true, ".tif": true, ".tiff": true,
	// Documents
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".odt": true,
	// Archives
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".rar": true,
	".7z": true, ".bz2": true, ".xz": true,
	// Compiled binaries
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".o": true, ".a": true, ".class": true, ".wasm": true,
	".pyc": true, ".pyo": true, ".pyd": true,
	".jar": true, ".war": true, ".ear": true,
	// Media
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".flv": true,
	".wav": true, ".ogg": true, ".mkv": true, ".webm": true,
	// Fonts and databases
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
}

// IsBinaryExtension reports whether name carries a known binary extension.
func IsBinaryExtension(name string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(name))]
}

// Detection is the outcome of classifying one file.
type Detection struct {
	IsText   bool
	Encoding string
	Content  string
}

// DetectFile classifies a file by name first and by content second. Files
// with a binary extension are rejected before raw is looked at, so callers
// may pass nil raw bytes for them.
func DetectFile(name string, raw []byte) Detection {
	if IsBinaryExtension(name) {
		return Detection{}
	}
	isText, enc := Detect(raw)
	if !isText {
		return Detection{Encoding: enc}
	}
	return Detection{IsText: true, Encoding: enc, Content: Decode(raw, enc)}
}

// Detect decides whether raw is text and guesses its encoding.
func Detect(raw []byte) (bool, string) {
	if len(raw) == 0 {
		return true, EncodingUTF8
	}

	sample := raw
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}

	// NUL bytes only appear in text encoded as UTF-16 or UTF-32, and we only
	// believe that when a byte-order mark says so.
	if bytes.IndexByte(sample, 0) >= 0 {
		if cs := bomCharset(raw); cs != "" {
			return true, cs
		}
		return false, ""
	}

	if utf8.Valid(raw) {
		return true, EncodingUTF8
	}

	res, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || res == nil || res.Confidence < minConfidence || res.Charset == "" {
		return true, EncodingUTF8
	}
	return true, res.Charset
}

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, "UTF-32BE"},
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, "UTF-32LE"},
	{[]byte{0xFE, 0xFF}, "UTF-16BE"},
	{[]byte{0xFF, 0xFE}, "UTF-16LE"},
}

func bomCharset(raw []byte) string {
	for _, b := range boms {
		if bytes.HasPrefix(raw, b.prefix) {
			return b.charset
		}
	}
	return ""
}

// Decode converts raw to a Go string using the named charset. A leading
// byte-order mark is consumed, not returned. Bytes that do not decode are
// replaced with U+FFFD; Decode never fails.
func Decode(raw []byte, charset string) string {
	if len(raw) == 0 {
		return ""
	}

	var enc encoding.Encoding = encoding.Nop
	if !strings.EqualFold(charset, EncodingUTF8) && charset != "" {
		if e := lookupEncoding(charset); e != nil {
			enc = e
		}
	}

	var t transform.Transformer = enc.NewDecoder()
	if !strings.HasPrefix(strings.ToUpper(charset), "UTF-32") {
		// A UTF-8 or UTF-16 BOM overrides the named charset and is stripped.
		// A UTF-32LE BOM starts with the UTF-16LE one, so those are left alone.
		t = unicode.BOMOverride(t)
	}
	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		out = raw
	}
	return strings.TrimPrefix(strings.ToValidUTF8(string(out), "\uFFFD"), "\uFEFF")
}

func lookupEncoding(charset string) encoding.Encoding {
	if enc, err := htmlindex.Get(charset); err == nil && enc != nil {
		return enc
	}
	// chardet reports a few names htmlindex does not know (GB-18030, IBM424_rtl, ...).
	if enc, err := ianaindex.IANA.Encoding(charset); err == nil && enc != nil {
		return enc
	}
	if enc, err := ianaindex.IANA.Encoding(strings.ReplaceAll(charset, "-", "")); err == nil && enc != nil {
		return enc
	}
	return nil
}
