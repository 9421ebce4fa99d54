package cmd

import (
	"bytes"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"xldict/config"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	tests := []struct {
		name    string
		level   string
		debug   bool
		want    log.Level
		wantErr bool
	}{
		{name: "default info", level: "", want: log.InfoLevel},
		{name: "configured warn", level: "warn", want: log.WarnLevel},
		{name: "verbose wins", level: "error", debug: true, want: log.DebugLevel},
		{name: "invalid level", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := configureLogging(tt.level, tt.debug)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if log.GetLevel() != tt.want {
				t.Fatalf("expected level %s, got %s", tt.want, log.GetLevel())
			}
		})
	}
}

func TestPrintConfig(t *testing.T) {
	t.Parallel()

	restKey := "extra"
	cfg := config.Config{
		Reader:  config.ReaderConfig{FieldNames: []string{"a", "b"}},
		Storage: config.StorageConfig{DB: "./xldict.db"},
		Rules:   []config.Rule{{Name: "r", FileTemplate: "*.csv", RestKey: &restKey}},
	}

	var out bytes.Buffer
	printConfig(&out, cfg)
	text := out.String()
	for _, want := range []string{
		"reader.fieldnames: a, b\n",
		"reader.restkey: (unset)\n",
		"storage.db: ./xldict.db\n",
		"rules[0].fieldnames: (first row)\n",
		"rules[0].restkey: \"extra\"\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}
