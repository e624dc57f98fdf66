package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseNodeType(t *testing.T) {
	for _, typ := range []NodeType{NodeTypeFile, NodeTypeFolder} {
		got, err := ParseNodeType(typ.String())
		if err != nil {
			t.Fatalf("ParseNodeType(%q) error = %v", typ, err)
		}
		if got != typ {
			t.Errorf("ParseNodeType(%q) = %v", typ, got)
		}
	}

	if _, err := ParseNodeType("symlink"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFile_Fields(t *testing.T) {
	f := File{
		Path:        "docs/a.txt",
		ETag:        "e1",
		Permissions: PermissionRead | PermissionShare,
		Type:        NodeTypeFile.String(),
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"path":"docs/a.txt","etag":"e1","permissions":17,"type":"file"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	if !f.IsFile() || f.IsDir() {
		t.Errorf("IsFile/IsDir wrong for %+v", f)
	}
	if !f.Permissions.Has(PermissionRead) || f.Permissions.Has(PermissionDelete) {
		t.Errorf("Has wrong for %d", f.Permissions)
	}
}
