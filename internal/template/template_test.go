package template

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/roskakori/nubops/internal/errors"
)

func TestParseContent(t *testing.T) {
	text := `# nginx site.
#
# Forwards to gunicorn.
mode: 0640
target: /etc/nginx/sites-available/$domain


server {
    # a comment that belongs to the content
    server_name $domain;
}
`
	got, err := parseContent("recipe/nginx", text)
	if err != nil {
		t.Fatalf("parseContent failed: %v", err)
	}

	want := &ContentTemplate{
		Path:        "recipe/nginx",
		Description: "nginx site. Forwards to gunicorn.",
		Target:      "/etc/nginx/sites-available/$domain",
		TargetLine:  4,
		Mode:        0o640,
		Body:        "server {\n    # a comment that belongs to the content\n    server_name $domain;\n}\n",
		BodyLine:    7,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseContent mismatch (-want +got):\n%s", diff)
	}
}

func TestParseContentKeep(t *testing.T) {
	got, err := parseContent("daemon.json", "keep: existing\ntarget: /etc/docker/daemon.json\n{}\n")
	if err != nil {
		t.Fatalf("parseContent failed: %v", err)
	}
	if !got.Keep {
		t.Error("expected Keep to be set")
	}
	if got.Mode != DefaultFileMode {
		t.Errorf("expected default mode, got %o", got.Mode)
	}
}

func TestParseContentErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			name:    "missing target",
			text:    "# only a comment\n",
			wantErr: "site:1: target must be set",
		},
		{
			name:    "empty file",
			text:    "",
			wantErr: "site:1: target must be set",
		},
		{
			name:    "missing content",
			text:    "target: /etc/x\n\n\n",
			wantErr: "site:3: content template must be set",
		},
		{
			name:    "line without key",
			text:    "# comment\nserver {\n",
			wantErr: "site:2: line must match 'key: value' but is: server {",
		},
		{
			name:    "unknown key",
			text:    "\ntraget: /etc/x\ncontent\n",
			wantErr: "site:2: key is 'traget' but must be one of: keep, mode, target",
		},
		{
			name:    "invalid mode",
			text:    "mode: rw-r--r--\ntarget: /etc/x\ncontent\n",
			wantErr: "site:1: mode must be an octal file mode like 0644 but is: rw-r--r--",
		},
		{
			name:    "invalid keep",
			text:    "keep: always\ntarget: /etc/x\ncontent\n",
			wantErr: `site:1: keep must be "existing" but is: always`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseContent("templates/x/site", tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrData) {
				t.Errorf("expected data error, got %T", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestContentTemplateResolve(t *testing.T) {
	tmpl, err := parseContent("site", "target: /etc/nginx/sites-available/$domain\n\nserver_name $domain;\nproxy_set_header Host $$host;\n")
	if err != nil {
		t.Fatalf("parseContent failed: %v", err)
	}
	symbols := map[string]string{"domain": "www.example.com"}

	t.Run("root target folder", func(t *testing.T) {
		content, err := tmpl.Resolve(symbols, "/")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if content.TargetPath != "/etc/nginx/sites-available/www.example.com" {
			t.Errorf("unexpected target %s", content.TargetPath)
		}
		if content.Text != "server_name www.example.com;\nproxy_set_header Host $host;\n" {
			t.Errorf("unexpected text %q", content.Text)
		}
	})

	t.Run("staging target folder", func(t *testing.T) {
		content, err := tmpl.Resolve(symbols, "/tmp/stage")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if content.TargetPath != "/tmp/stage/etc/nginx/sites-available/www.example.com" {
			t.Errorf("unexpected target %s", content.TargetPath)
		}
	})
}

func TestContentTemplateResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			name:    "missing symbol in target",
			text:    "# c\ntarget: /etc/$missing\ncontent\n",
			wantErr: "site:2: cannot resolve target path: missing symbol: 'missing'",
		},
		{
			name:    "missing symbol in content",
			text:    "target: /etc/x\n\nline 3\nline 4 $missing\n",
			wantErr: "site:4: cannot resolve content because of missing symbol: 'missing'",
		},
		{
			name:    "invalid placeholder in content",
			text:    "target: /etc/x\nfirst\nsecond $uri\nthird $ \n",
			wantErr: "site:4: cannot resolve content: invalid placeholder at column 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := parseContent("site", tt.text)
			if err != nil {
				t.Fatalf("parseContent failed: %v", err)
			}
			_, err = tmpl.Resolve(map[string]string{"uri": "/"}, "/")
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadRecipe(t *testing.T) {
	fsys := fstest.MapFS{
		"hello_world/recipe.yaml": {Data: []byte(`short: Say hello
arguments:
  - name: name
    help: who to greet
options:
  - name: greeting-file
    default: /tmp/$name.txt
`)},
		"hello_world/greeting":           {Data: []byte("target: $greeting_file\nHello $name\n")},
		"hello_world/commands/after.sh":  {Data: []byte("cat $greeting_file\n")},
		"hello_world/commands/README.md": {Data: []byte("ignored")},
		"scripts_only/commands/after.sh": {Data: []byte("true\n")},
		"empty/recipe.yaml":              {Data: []byte("short: nothing\n")},
	}

	t.Run("full recipe", func(t *testing.T) {
		recipe, err := LoadRecipe(fsys, "hello-world")
		if err != nil {
			t.Fatalf("LoadRecipe failed: %v", err)
		}
		if recipe.Name != "hello-world" || recipe.Short != "Say hello" {
			t.Errorf("unexpected recipe %+v", recipe)
		}
		if diff := cmp.Diff([]string{"name", "greeting_file"}, recipe.SymbolNames()); diff != "" {
			t.Errorf("SymbolNames mismatch (-want +got):\n%s", diff)
		}
		if len(recipe.Contents) != 1 || recipe.Contents[0].Path != "hello_world/greeting" {
			t.Errorf("unexpected contents %+v", recipe.Contents)
		}
		if len(recipe.Scripts) != 1 || recipe.Scripts[ScriptAfter] == nil {
			t.Errorf("unexpected scripts %+v", recipe.Scripts)
		}
	})

	t.Run("scripts only", func(t *testing.T) {
		recipe, err := LoadRecipe(fsys, "scripts-only")
		if err != nil {
			t.Fatalf("LoadRecipe failed: %v", err)
		}
		if len(recipe.Contents) != 0 {
			t.Errorf("expected no contents, got %d", len(recipe.Contents))
		}
	})

	t.Run("no templates", func(t *testing.T) {
		_, err := LoadRecipe(fsys, "empty")
		if !errors.Is(err, errors.ErrData) {
			t.Errorf("expected data error, got %v", err)
		}
	})

	t.Run("unknown recipe", func(t *testing.T) {
		_, err := LoadRecipe(fsys, "nope")
		if !errors.Is(err, errors.ErrRecipeNotFound) {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := LoadRecipe(fsys, "../etc")
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestLoadRecipeDuplicateArgument(t *testing.T) {
	fsys := fstest.MapFS{
		"dup/recipe.yaml": {Data: []byte("arguments:\n  - name: project-dir\noptions:\n  - name: project_dir\n")},
		"dup/x":           {Data: []byte("target: /x\nx\n")},
	}
	_, err := LoadRecipe(fsys, "dup")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "project_dir") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestScriptResolve(t *testing.T) {
	script := &ScriptTemplate{Kind: ScriptAfter, Path: "x/commands/after.sh", Text: "set -e\nsystemctl restart $service\n"}

	text, err := script.Resolve(map[string]string{"service": "nginx"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if text != "set -e\nsystemctl restart nginx\n" {
		t.Errorf("unexpected text %q", text)
	}

	_, err = script.Resolve(map[string]string{})
	if err == nil || err.Error() != "after.sh:2: cannot resolve script after.sh because of missing symbol: 'service'" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestScriptKinds(t *testing.T) {
	want := []string{"install.sh", "before.sh", "after.sh"}
	var got []string
	for _, kind := range ScriptKinds() {
		got = append(got, kind.ShName())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScriptKinds mismatch (-want +got):\n%s", diff)
	}
}

func TestNames(t *testing.T) {
	if SymbolName("project-dir") != "project_dir" {
		t.Error("SymbolName should replace hyphens")
	}
	if CommandName("nginx_django") != "nginx-django" {
		t.Error("CommandName should replace underscores")
	}
	if !IsValidRecipeName("set-timezone") || IsValidRecipeName("-x") || IsValidRecipeName("a b") {
		t.Error("IsValidRecipeName misbehaves")
	}
}

// sampleSymbols covers every symbol the embedded recipes use.
func sampleSymbols() map[string]string {
	return map[string]string{
		"environment":  "test",
		"project":      "example",
		"domain":       "www.example.com",
		"email":        "admin@example.com",
		"user":         "www-data",
		"group":        "www-data",
		"project_dir":  "/var/www/test/example",
		"workers":      "3",
		"bantime":      "1h",
		"maxretry":     "5",
		"timezone":     "Europe/Vienna",
		"log_max_size": "10m",
		"log_max_file": "3",
	}
}

func TestEmbeddedRecipes(t *testing.T) {
	fsys := Embedded()
	names, err := RecipeNames(fsys)
	if err != nil {
		t.Fatalf("RecipeNames failed: %v", err)
	}
	if diff := cmp.Diff([]string{"certbot-nginx", "docker", "fail2ban", "nginx-django", "set-timezone"}, names); diff != "" {
		t.Fatalf("RecipeNames mismatch (-want +got):\n%s", diff)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			recipe, err := LoadRecipe(fsys, name)
			if err != nil {
				t.Fatalf("LoadRecipe failed: %v", err)
			}
			if recipe.Short == "" {
				t.Error("recipe should have a short description")
			}
			for _, content := range recipe.Contents {
				resolved, err := content.Resolve(sampleSymbols(), "/")
				if err != nil {
					t.Errorf("Resolve %s failed: %v", content.Path, err)
					continue
				}
				if strings.Contains(resolved.TargetPath, "$") {
					t.Errorf("unresolved target %s", resolved.TargetPath)
				}
			}
			for _, script := range recipe.Scripts {
				if _, err := script.Resolve(sampleSymbols()); err != nil {
					t.Errorf("Resolve %s failed: %v", script.Path, err)
				}
			}
		})
	}
}

func TestEmbeddedNginxDjango(t *testing.T) {
	recipe, err := LoadRecipe(Embedded(), "nginx-django")
	if err != nil {
		t.Fatalf("LoadRecipe failed: %v", err)
	}

	var site *Content
	for _, content := range recipe.Contents {
		resolved, err := content.Resolve(sampleSymbols(), "/")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if resolved.TargetPath == "/etc/nginx/sites-available/www.example.com" {
			site = resolved
		}
	}
	if site == nil {
		t.Fatal("nginx site not found")
	}

	for _, expected := range []string{
		"server_name www.example.com;",
		"root /var/www/test/example;",
		"proxy_set_header Host $host;",
		"proxy_pass http://unix:/run/gunicorn_example.sock;",
	} {
		if !strings.Contains(site.Text, expected) {
			t.Errorf("expected output to contain %q", expected)
		}
	}
}

func TestEmbeddedDockerKeepsDaemonJSON(t *testing.T) {
	recipe, err := LoadRecipe(Embedded(), "docker")
	if err != nil {
		t.Fatalf("LoadRecipe failed: %v", err)
	}
	for _, content := range recipe.Contents {
		if content.Target == "/etc/docker/daemon.json" && !content.Keep {
			t.Error("daemon.json must keep an existing file")
		}
	}
}

func TestOpen(t *testing.T) {
	fsys, err := Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := RecipeNames(fsys); err != nil {
		t.Errorf("RecipeNames failed: %v", err)
	}

	dir := t.TempDir()
	if err := os.MkdirAll(dir+"/custom/commands", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+"/custom/commands/after.sh", []byte("true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fsys, err = Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := LoadRecipe(fsys, "custom"); err != nil {
		t.Errorf("LoadRecipe failed: %v", err)
	}

	if _, err := Open(dir + "/missing"); err == nil {
		t.Error("expected error for missing folder")
	}
}
