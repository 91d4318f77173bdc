package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"root package", "", false},
		{"single segment", "com", false},
		{"dotted", "com.example.api", false},
		{"with underscore", "com.my_company", false},

		{"too long", string(make([]byte, 300)), true},
		{"empty segment", "com..example", true},
		{"leading dot", ".com", true},
		{"trailing dot", "com.example.", true},
		{"slash", "com/example", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateClassName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"top level", "com.example.Foo", false},
		{"nested", "com.example.Outer$Inner", false},
		{"default package", "Foo", false},
		{"unicode", "com.exämple.Größe", false},

		{"empty", "", true},
		{"starts with digit", "com.example.1Foo", true},
		{"descriptor form", "Lcom/example/Foo;", true},
		{"array", "com.example.Foo[]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClassName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClassName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidClass) {
				t.Errorf("ValidateClassName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidClass)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"class resource", "com/example/Foo.class", false},
		{"nested class", "com/example/Outer$Inner.class", false},

		{"empty", "", true},
		{"absolute", "/com/example/Foo.class", true},
		{"traversal", "com/../Foo.class", true},
		{"backslash", "com\\Foo.class", true},
		{"control", "com/\x01Foo.class", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
