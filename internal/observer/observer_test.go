package observer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"

	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testOptions keeps the debounce short enough for tests without rate limiting
// getting in the way.
func testOptions() Options {
	return Options{
		Debounce:     20 * time.Millisecond,
		RefreshLimit: rate.Inf,
		RefreshBurst: 1,
	}
}

func writeDoc(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("<html><body>"+body+"</body></html>"), 0o644))
}

func startObserver(t *testing.T, path string, sess *session.Session) (*Observer, chan session.Result) {
	t.Helper()
	refreshed := make(chan session.Result, 16)
	o, err := New(path, sess, testOptions())
	require.NoError(t, err)
	o.OnRefresh = func(res session.Result, err error) {
		if err == nil {
			refreshed <- res
		}
	}
	require.NoError(t, o.Start())
	t.Cleanup(o.Stop)
	return o, refreshed
}

func waitRefresh(t *testing.T, ch chan session.Result) session.Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for refresh")
		return session.Result{}
	}
}

func TestRefreshOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeDoc(t, path, "<p>needle</p>")

	doc, err := dom.ParseFile(path)
	require.NoError(t, err)
	sess := session.New(doc, session.DefaultOptions())
	_, err = sess.Search(session.Params{Query: "needle"})
	require.NoError(t, err)

	_, refreshed := startObserver(t, path, sess)

	writeDoc(t, path, "<p>needle</p><p>needle again</p>")
	res := waitRefresh(t, refreshed)
	assert.Equal(t, 2, res.TotalMatches)

	_, nav := sess.State()
	assert.Equal(t, 2, nav.TotalMatches, "session state follows the new document")
}

func TestDebounceCoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeDoc(t, path, "<p>one</p>")

	doc, err := dom.ParseFile(path)
	require.NoError(t, err)
	sess := session.New(doc, session.DefaultOptions())
	_, err = sess.Search(session.Params{Query: "one"})
	require.NoError(t, err)

	_, refreshed := startObserver(t, path, sess)

	// A burst of writes inside the debounce window yields one refresh.
	for i := 0; i < 5; i++ {
		writeDoc(t, path, "<p>one one</p>")
		time.Sleep(2 * time.Millisecond)
	}
	waitRefresh(t, refreshed)

	select {
	case <-refreshed:
		t.Fatal("burst produced more than one refresh")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestUnchangedContentSkipsRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeDoc(t, path, "<p>stable</p>")

	doc, err := dom.ParseFile(path)
	require.NoError(t, err)
	sess := session.New(doc, session.DefaultOptions())

	_, refreshed := startObserver(t, path, sess)

	// Rewriting identical bytes touches mtime but not the fingerprint.
	writeDoc(t, path, "<p>stable</p>")

	select {
	case <-refreshed:
		t.Fatal("identical content triggered a refresh")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	writeDoc(t, path, "<p>target</p>")

	doc, err := dom.ParseFile(path)
	require.NoError(t, err)
	sess := session.New(doc, session.DefaultOptions())

	_, refreshed := startObserver(t, path, sess)

	writeDoc(t, filepath.Join(dir, "other.html"), "<p>noise</p>")

	select {
	case <-refreshed:
		t.Fatal("sibling file write triggered a refresh")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestReloadErrorIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeDoc(t, path, "<p>doomed</p>")

	doc, err := dom.ParseFile(path)
	require.NoError(t, err)
	sess := session.New(doc, session.DefaultOptions())

	failures := make(chan error, 16)
	o, err := New(path, sess, testOptions())
	require.NoError(t, err)
	o.OnRefresh = func(_ session.Result, err error) {
		if err != nil {
			failures <- err
		}
	}
	require.NoError(t, o.Start())
	defer o.Stop()

	// A rename event with the file gone mid-refresh reads as a reload failure.
	require.NoError(t, os.Rename(path, path+".bak"))

	select {
	case err := <-failures:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload failure")
	}
}

func TestStopWaitsForInFlightRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeDoc(t, path, "<p>needle</p>")

	doc, err := dom.ParseFile(path)
	require.NoError(t, err)
	sess := session.New(doc, session.DefaultOptions())
	_, err = sess.Search(session.Params{Query: "needle"})
	require.NoError(t, err)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	o, err := New(path, sess, testOptions())
	require.NoError(t, err)
	o.OnRefresh = func(session.Result, error) {
		close(inFlight)
		<-release
	}
	require.NoError(t, o.Start())

	writeDoc(t, path, "<p>needle needle</p>")
	select {
	case <-inFlight:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for refresh to start")
	}

	stopped := make(chan struct{})
	go func() {
		o.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a refresh was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for Stop")
	}
}

func TestWritesAfterStopAreIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeDoc(t, path, "<p>x</p>")

	doc, err := dom.ParseFile(path)
	require.NoError(t, err)
	sess := session.New(doc, session.DefaultOptions())

	o, err := New(path, sess, testOptions())
	require.NoError(t, err)
	require.NoError(t, o.Start())
	o.Stop()

	// Writes after Stop go nowhere.
	writeDoc(t, path, "<p>changed</p>")
	time.Sleep(100 * time.Millisecond)
	_, nav := sess.State()
	assert.Equal(t, 0, nav.TotalMatches)
}
