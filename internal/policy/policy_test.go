package policy

import "testing"

func TestClassify_DangerousOverridesAllowList(t *testing.T) {
	p := New([]string{"jpg", "php", "phtml", "sh", "exe"})

	for _, name := range []string{"shell.php", "x.PHTML", "run.sh", "setup.exe", ".htaccess"} {
		d := p.Classify(name)
		if d.Allowed() {
			t.Errorf("Expected %s to be denied", name)
		}
	}

	if !p.Classify("photo.jpg").Allowed() {
		t.Fatal("Expected photo.jpg to be allowed")
	}
}

func TestClassify_AllowList(t *testing.T) {
	p := New([]string{"png", ".PDF"})

	cases := map[string]bool{
		"image.png":   true,
		"IMAGE.PNG":   true,
		"doc.pdf":     true,
		"photo.jpg":   false,
		"archive.zip": false,
		"README":      false,
	}

	for name, want := range cases {
		if got := p.Classify(name).Allowed(); got != want {
			t.Errorf("Classify(%q) allowed = %v, want %v", name, got, want)
		}
	}
}

func TestClassify_DefaultTable(t *testing.T) {
	p := New(nil)

	if !p.Classify("clip.mp4").Allowed() {
		t.Fatal("Expected mp4 to be allowed by default")
	}
	if p.Classify("page.html").Allowed() {
		t.Fatal("Expected html to be denied by default")
	}

	mime, ok := p.MimeType("JPG")
	if !ok || mime != "image/jpeg" {
		t.Fatalf("Expected image/jpeg, got %q (%v)", mime, ok)
	}
}

func TestClassify_ReportsExtension(t *testing.T) {
	d := New(nil).Classify("archive.tar.GZ")
	if d.Extension != "gz" {
		t.Fatalf("Expected extension gz, got %q", d.Extension)
	}
	if d.Verdict != Allowed {
		t.Fatalf("Expected allowed verdict, got %s", d.Verdict)
	}
}

func TestNew_UnknownExtensionGetsOctetStream(t *testing.T) {
	p := New([]string{"blend"})

	mime, ok := p.MimeType("blend")
	if !ok || mime != "application/octet-stream" {
		t.Fatalf("Expected octet-stream for unknown allowed ext, got %q", mime)
	}
	if !p.IsAllowedExtension("blend") {
		t.Fatal("Expected blend to be allowed")
	}
}
