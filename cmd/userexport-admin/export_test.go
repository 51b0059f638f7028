package main

import (
	"reflect"
	"testing"

	"github.com/isdelr/userexport/internal/database"
	"github.com/isdelr/userexport/internal/export"
)

func TestSelectFields(t *testing.T) {
	catalog, err := export.NewCatalog(export.DefaultFieldSpecs(), database.KnownUserColumns)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"none", nil, catalog.DefaultFields()},
		{"reordered", []string{"user_email", " user_id"}, []string{"user_id", "user_email"}},
		{"unknown only", []string{"user_password"}, catalog.DefaultFields()},
		{"mixed", []string{"bogus", "user_touched"}, []string{"user_touched"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectFields(catalog, tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("selectFields(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
