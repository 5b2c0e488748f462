package core

import "strings"

// KeySeparator joins the parts of an AssetKey in its string form.
const KeySeparator = "_"

// AssetKey identifies the same real-world holding across months.
type AssetKey struct {
	Category string
	Source   string
	Name     string
}

// NormalizeKeyPart case-folds s and collapses runs of whitespace.
func NormalizeKeyPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func NewAssetKey(category, source, name string) AssetKey {
	return AssetKey{
		Category: NormalizeKeyPart(category),
		Source:   NormalizeKeyPart(source),
		Name:     NormalizeKeyPart(name),
	}
}

func (k AssetKey) String() string {
	return k.Category + KeySeparator + k.Source + KeySeparator + k.Name
}

// MarshalText lets AssetKey be used as a JSON object key.
func (k AssetKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
