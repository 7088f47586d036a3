package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"serve": false, "migrate": false, "passwd": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("команда %s не зарегистрирована", name)
		}
	}
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	for _, arg := range []string{"0", "two"} {
		root := newRootCmd()
		root.SetArgs([]string{"migrate", "down", arg})
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})

		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), "положительным") {
			t.Errorf("migrate down %s: ошибка = %v", arg, err)
		}
	}
}

func TestReadPassword(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"s3cret\n", "s3cret", false},
		{"s3cret\r\n", "s3cret", false},
		{"no-newline", "no-newline", false},
		{"\n", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		cmd := &cobra.Command{}
		cmd.SetIn(strings.NewReader(tt.input))

		got, err := readPassword(cmd)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readPassword(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestPasswdUserFlag(t *testing.T) {
	cmd := newPasswdCmd()
	f := cmd.Flags().Lookup(userFlag)
	if f == nil {
		t.Fatal("флаг --user не зарегистрирован")
	}
	if f.DefValue != "admin" {
		t.Errorf("значение по умолчанию = %q, ожидалось admin", f.DefValue)
	}
}
