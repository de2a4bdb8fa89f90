package sniff

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// charsetAliases maps detector output that htmlindex does not know to a
// label it does.
var charsetAliases = map[string]string{
	"cp932":    "shift_jis",
	"gb-18030": "gb18030",
	"ascii":    "utf-8",
}

// DecodeBytes converts raw bytes in the named charset to UTF-8. Unknown
// charset names are treated as UTF-8; malformed sequences are substituted
// with the replacement character rather than failing. Byte order marks
// are stripped from the result.
func DecodeBytes(raw []byte, name string) []byte {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := charsetAliases[name]; ok {
		name = alias
	}

	if name == "" || name == "utf-8" || name == "utf8" {
		return stripBOM(bytes.ToValidUTF8(raw, []byte("�")))
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return stripBOM(bytes.ToValidUTF8(raw, []byte("�")))
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return stripBOM(bytes.ToValidUTF8(raw, []byte("�")))
	}
	return stripBOM(decoded)
}

// stripBOM removes a leading byte order mark. A BOM decoded from UTF-16
// input arrives here as the UTF-8 encoding of U+FEFF, the same bytes.
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, utf8BOM)
}
