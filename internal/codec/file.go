package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DecodeFile decodes path into v, choosing the format from the extension:
// .json/.jsonc (comments and trailing commas allowed), .yaml/.yml, .cbor.
func DecodeFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := Decode(filepath.Ext(path), raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func Decode(ext string, raw []byte, v any) error {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(raw), v)
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, v)
	case ".cbor":
		return CBOR.Unmarshal(raw, v)
	default:
		return fmt.Errorf("unsupported file extension %q", ext)
	}
}

// EncodeFile writes v to path in the format its extension names.
func EncodeFile(path string, v any) error {
	var (
		raw []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		raw, err = json.MarshalIndent(v, "", "  ")
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(v)
	case ".cbor":
		raw, err = CBOR.Marshal(v)
	default:
		err = fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
