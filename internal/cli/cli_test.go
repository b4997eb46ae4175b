package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ainotes-dev/ainotes/internal/testutil"
)

type harness struct {
	t       *testing.T
	backend *testutil.Backend
	home    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{t: t, backend: testutil.NewBackend(t), home: t.TempDir()}
}

// run executes one command line against the harness backend and state
// directory, feeding stdin and returning everything written to stdout.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCmd()
	cmd.SetArgs(append(args, "--home", h.home, "--server", h.backend.URL))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	if err != nil {
		h.t.Fatalf("%s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (h *harness) signIn() string {
	h.t.Helper()
	user := h.backend.AddUser(h.t, "ana@example.com", "ana", "secret123")
	h.mustRun("", "login", "ana@example.com", "--password", "secret123")
	return user.ID
}

func TestLoginStatusLogout(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser(t, "ana@example.com", "ana", "secret123")

	out := h.mustRun("", "login", "ana@example.com", "--password", "secret123")
	if !strings.Contains(out, "Signed in as ana (ana@example.com)") {
		t.Errorf("login output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(h.home, "state.db")); err != nil {
		t.Errorf("token store not created: %v", err)
	}

	out = h.mustRun("", "status")
	for _, want := range []string{"Server: " + h.backend.URL, "Signed in as ana", "Access token expires"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}

	if out := h.mustRun("", "logout"); !strings.Contains(out, "Signed out.") {
		t.Errorf("logout output = %q", out)
	}
	if out := h.mustRun("", "status"); !strings.Contains(out, "Not signed in.") {
		t.Errorf("status after logout = %q", out)
	}
}

func TestLogin_Prompts(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser(t, "ana@example.com", "ana", "secret123")

	out := h.mustRun("ana\nsecret123\n", "login")
	if !strings.Contains(out, "Email or username: ") || !strings.Contains(out, "Signed in as ana") {
		t.Errorf("output = %q", out)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser(t, "ana@example.com", "ana", "secret123")

	if _, err := h.run("", "login", "ana", "--password", "nope"); err == nil {
		t.Fatal("expected an error")
	}
	if out := h.mustRun("", "status"); !strings.Contains(out, "Not signed in.") {
		t.Errorf("failed login left a session:\n%s", out)
	}
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("secret123\nsecret123\n", "register", "--email", "bo@example.com", "--username", "bo")
	if !strings.Contains(out, "Account created. Signed in as bo (bo@example.com)") {
		t.Errorf("output = %q", out)
	}

	_, err := h.run("secret123\nsecret124\n", "register", "--email", "cy@example.com", "--username", "cy")
	if err == nil || !strings.Contains(err.Error(), "passwords do not match") {
		t.Errorf("mismatched confirmation: err = %v", err)
	}
}

func TestNotes_RequireSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "notes", "list")
	if !errors.Is(err, errNotSignedIn) {
		t.Fatalf("err = %v, want errNotSignedIn", err)
	}
}

func TestNotes_CreateListDelete(t *testing.T) {
	h := newHarness(t)
	uid := h.signIn()
	h.backend.SeedNote(uid, testutil.TextNote("old", "Tax return", "", time.Now().Add(-90*24*time.Hour)))

	out := h.mustRun("", "notes", "create", "--title", "Groceries", "--content", "milk\nand eggs")
	if !strings.HasPrefix(out, "Created note ") {
		t.Fatalf("create output = %q", out)
	}
	id := strings.TrimSpace(strings.TrimPrefix(out, "Created note "))

	out = h.mustRun("", "notes", "list")
	for _, want := range []string{"Last 30 days (1)", "Groceries · milk and eggs", "Older (1)", "Tax return"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "30-60 days ago") {
		t.Errorf("empty group rendered:\n%s", out)
	}

	out = h.mustRun("", "notes", "list", "--search", "nothing")
	if !strings.Contains(out, `No notes match "nothing".`) {
		t.Errorf("search output = %q", out)
	}

	if out := h.mustRun("", "notes", "show", id); !strings.Contains(out, "milk\nand eggs") {
		t.Errorf("show output = %q", out)
	}

	h.mustRun("", "notes", "delete", id)
	if notes := h.backend.Notes(uid); len(notes) != 1 || notes[0].ID != "old" {
		t.Errorf("backend notes after delete = %v", notes)
	}
}

func TestNotes_CreateFromStdin(t *testing.T) {
	h := newHarness(t)
	uid := h.signIn()

	h.mustRun("piped body\n", "notes", "create", "--content", "-")

	notes := h.backend.Notes(uid)
	if len(notes) != 1 || notes[0].Text() != "piped body\n" {
		t.Fatalf("notes = %+v", notes)
	}
	if notes[0].Title != nil {
		t.Errorf("blank title should be sent as null, got %q", *notes[0].Title)
	}
}

func TestNotes_CreateNeedsTitleOrContent(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, err := h.run("", "notes", "create")
	if err == nil || !strings.Contains(err.Error(), "a title or some content is required") {
		t.Errorf("err = %v", err)
	}
}

func TestNotes_UpdateKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	uid := h.signIn()
	n := h.backend.SeedNote(uid, testutil.TextNote("n1", "Ideas", "build a boat", time.Now()))

	h.mustRun("", "notes", "update", n.ID, "--title", "Projects")

	got := h.backend.Notes(uid)[0]
	if got.TitleOr("") != "Projects" || got.Text() != "build a boat" {
		t.Errorf("note after update = %q / %q", got.TitleOr(""), got.Text())
	}

	if _, err := h.run("", "notes", "update", n.ID); err == nil {
		t.Error("update without flags should fail")
	}
}

func TestNotes_Upload(t *testing.T) {
	h := newHarness(t)
	uid := h.signIn()

	path := filepath.Join(t.TempDir(), "receipt.png")
	if err := os.WriteFile(path, testutil.PNG(t), 0600); err != nil {
		t.Fatal(err)
	}

	out := h.mustRun("", "notes", "upload", path, "--title", "Receipt")
	if !strings.HasPrefix(out, "Uploaded image note ") {
		t.Fatalf("upload output = %q", out)
	}
	notes := h.backend.Notes(uid)
	if len(notes) != 1 || !notes[0].IsImage() {
		t.Fatalf("backend notes = %+v", notes)
	}

	if out := h.mustRun("", "notes", "list"); !strings.Contains(out, "image") {
		t.Errorf("list should mark image notes:\n%s", out)
	}
}

func TestAskAndHistory(t *testing.T) {
	h := newHarness(t)
	uid := h.signIn()
	h.backend.SeedNote(uid, testutil.TextNote("n1", "Ideas", "build a boat", time.Now()))

	out := h.mustRun("", "ask", "what", "are", "my", "ideas?")
	if !strings.Contains(out, "You have 1 notes.") || !strings.Contains(out, "n1  Ideas") {
		t.Errorf("ask output = %q", out)
	}

	out = h.mustRun("", "history", "list")
	if !strings.Contains(out, "what are my ideas?") {
		t.Fatalf("history list = %q", out)
	}
	id := strings.Fields(out)[0]

	if out := h.mustRun("", "history", "show", id); !strings.Contains(out, "Answer:   You have 1 notes.") {
		t.Errorf("history show = %q", out)
	}
	h.mustRun("", "history", "delete", id)
	if out := h.mustRun("", "history", "list"); !strings.Contains(out, "No questions asked yet.") {
		t.Errorf("history after delete = %q", out)
	}
}

func TestEphemeralSessionIsNotStored(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser(t, "ana@example.com", "ana", "secret123")

	h.mustRun("", "login", "ana", "--password", "secret123", "--ephemeral")

	out := h.mustRun("", "status", "--ephemeral")
	if !strings.Contains(out, "Tokens: in memory") || !strings.Contains(out, "Not signed in.") {
		t.Errorf("status = %q", out)
	}
	if _, err := os.Stat(filepath.Join(h.home, "state.db")); !os.IsNotExist(err) {
		t.Errorf("ephemeral run created a token store: %v", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "config", "init")
	if !strings.Contains(out, filepath.Join(h.home, "config.yaml")) {
		t.Errorf("init output = %q", out)
	}
	if _, err := h.run("", "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	h.mustRun("", "config", "init", "--force")

	out = h.mustRun("", "config", "show")
	for _, want := range []string{"base_url: " + h.backend.URL, "cell_width_px: 8"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q:\n%s", want, out)
		}
	}
}
