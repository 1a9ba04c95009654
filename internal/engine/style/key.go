package style

// Key identifies a recognised format property.
type Key uint8

// Recognised property keys.
const (
	KeyUnknown Key = iota
	KeyBold
	KeyItalic
	KeyUnderline
	KeyStrikeOut
	KeyFontFamily
	KeyFontSize
	KeyForeground
	KeyBackground
	KeyCharacterStyle
	KeyParagraphStyle
	KeyAlignment
	KeyIndent

	// KeyChangeID attributes a run to a tracked change. Its value is the
	// change id as an int.
	KeyChangeID

	keyCount
)

var keyNames = [keyCount]string{
	KeyUnknown:        "unknown",
	KeyBold:           "bold",
	KeyItalic:         "italic",
	KeyUnderline:      "underline",
	KeyStrikeOut:      "strike-out",
	KeyFontFamily:     "font-family",
	KeyFontSize:       "font-size",
	KeyForeground:     "foreground",
	KeyBackground:     "background",
	KeyCharacterStyle: "character-style",
	KeyParagraphStyle: "paragraph-style",
	KeyAlignment:      "alignment",
	KeyIndent:         "indent",
	KeyChangeID:       "change-id",
}

// String returns the serialized name of the key.
func (k Key) String() string {
	if k >= keyCount {
		return "unknown"
	}
	return keyNames[k]
}

// Valid reports whether k is one of the recognised keys.
func (k Key) Valid() bool {
	return k > KeyUnknown && k < keyCount
}

// KeyByName returns the key with the given serialized name.
func KeyByName(name string) (Key, bool) {
	for k := KeyUnknown + 1; k < keyCount; k++ {
		if keyNames[k] == name {
			return k, true
		}
	}
	return KeyUnknown, false
}

// Keys returns all recognised keys in declaration order.
func Keys() []Key {
	keys := make([]Key, 0, keyCount-1)
	for k := KeyUnknown + 1; k < keyCount; k++ {
		keys = append(keys, k)
	}
	return keys
}
