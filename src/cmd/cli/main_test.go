package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"selection-translate/src/config"
	"selection-translate/src/llm"
)

type fakeOllama struct {
	prompts []string
	pulled  []string
}

func (f *fakeOllama) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad generate request: %v", err)
		}
		f.prompts = append(f.prompts, req.Prompt)
		_, _ = w.Write([]byte(`{"response":"<think>hmm</think>你好"}`))
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"},{"name":"mistral:7b"}]}`))
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.pulled = append(f.pulled, req.Name)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})
	return mux
}

// setupEnv points the CLI at srv and an empty profile in a temp dir.
func setupEnv(t *testing.T, srvURL string) (profile string) {
	t.Helper()
	t.Setenv("OLLAMA_HOST", srvURL)
	t.Setenv("DEFAULT_MODEL", "")
	t.Setenv(config.EnvPathEnvVar, "")
	return filepath.Join(t.TempDir(), "profile.txt")
}

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"translate-tool", "translate", "-mode", "hosted", "-model", "deepseek-chat"},
			out:  []string{"translate-tool", "translate", "--mode", "hosted", "--model", "deepseek-chat"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"translate-tool", "translate", "-mode=local", "-json=true"},
			out:  []string{"translate-tool", "translate", "--mode=local", "--json=true"},
		},
		{
			name: "Leaves other args unchanged",
			in:   []string{"translate-tool", "translate", "--json", "-v", "hello"},
			out:  []string{"translate-tool", "translate", "--json", "-v", "hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestResolveSettings(t *testing.T) {
	cfg := &config.Config{DefaultModel: "mistral:7b"}
	base := config.DefaultSettings()

	s, err := resolveSettings(base, cfg, "local", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != config.ModeLocal || s.Model != "mistral:7b" {
		t.Errorf("Expected local/mistral:7b, got %s/%s", s.Mode, s.Model)
	}

	s, err = resolveSettings(base, cfg, "hosted", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != config.ModeHosted || s.Model != config.DefaultHostedModel {
		t.Errorf("Expected hosted/%s, got %s/%s", config.DefaultHostedModel, s.Mode, s.Model)
	}

	s, err = resolveSettings(base, cfg, "api", " deepseek-reasoner ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Model != "deepseek-reasoner" {
		t.Errorf("Expected explicit model to win, got %s", s.Model)
	}

	if _, err := resolveSettings(base, cfg, "cloud", ""); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestReadInput(t *testing.T) {
	text, err := readInput([]string{"hello", "world"}, strings.NewReader("ignored"))
	if err != nil || text != "hello world" {
		t.Errorf("Expected args to be joined, got %q, %v", text, err)
	}

	text, err = readInput(nil, strings.NewReader("  from stdin\n"))
	if err != nil || text != "from stdin" {
		t.Errorf("Expected trimmed stdin, got %q, %v", text, err)
	}

	if _, err := readInput(nil, strings.NewReader(" \n")); err == nil {
		t.Error("Expected error for blank input")
	}

	big := strings.NewReader(strings.Repeat("a", maxInputBytes+1))
	if _, err := readInput(nil, big); err == nil {
		t.Error("Expected error for oversized input")
	}
}

func TestTranslateLocalPlainOutput(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	profile := setupEnv(t, srv.URL)

	var stdout bytes.Buffer
	err := runWithArgs([]string{"translate-tool", "translate", "--profile", profile, "hello"}, strings.NewReader(""), &stdout)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if got := stdout.String(); got != "你好\n" {
		t.Errorf("Expected thinking to be stripped, got %q", got)
	}
	if len(fake.prompts) != 1 || !strings.HasSuffix(fake.prompts[0], "\nhello") {
		t.Errorf("Unexpected prompts: %q", fake.prompts)
	}
}

func TestTranslateJSONOutput(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	profile := setupEnv(t, srv.URL)

	var stdout bytes.Buffer
	err := runWithArgs([]string{"translate-tool", "translate", "--profile", profile, "--json"}, strings.NewReader("hello\n"), &stdout)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	var result TranslationResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v\n%s", err, stdout.String())
	}
	if result.Original != "hello" || result.Translated != "你好" {
		t.Errorf("Unexpected result: %+v", result)
	}
	if result.Mode != "local" || result.Model != config.DefaultLocalModel {
		t.Errorf("Unexpected backend in result: %s/%s", result.Mode, result.Model)
	}
}

func TestTranslateHostedWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()
	profile := setupEnv(t, srv.URL)

	err := runWithArgs([]string{"translate-tool", "translate", "--profile", profile, "--mode", "hosted", "hello"}, strings.NewReader(""), io.Discard)
	if !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestModelsAndPull(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	profile := setupEnv(t, srv.URL)

	var stdout bytes.Buffer
	if err := runWithArgs([]string{"translate-tool", "models", "--profile", profile}, nil, &stdout); err != nil {
		t.Fatalf("models failed: %v", err)
	}
	if got := stdout.String(); got != "qwen2.5:7b\nmistral:7b\n" {
		t.Errorf("Unexpected model list %q", got)
	}

	stdout.Reset()
	if err := runWithArgs([]string{"translate-tool", "pull", "--profile", profile, "mistral:7b"}, nil, &stdout); err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(fake.pulled) != 0 {
		t.Errorf("Expected installed model not to be pulled, got %v", fake.pulled)
	}

	stdout.Reset()
	if err := runWithArgs([]string{"translate-tool", "pull", "--profile", profile, "llama3.2:3b"}, nil, &stdout); err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(fake.pulled) != 1 || fake.pulled[0] != "llama3.2:3b" {
		t.Errorf("Expected llama3.2:3b to be pulled, got %v", fake.pulled)
	}
	if !strings.Contains(stdout.String(), "pulled llama3.2:3b") {
		t.Errorf("Unexpected pull output %q", stdout.String())
	}
}
