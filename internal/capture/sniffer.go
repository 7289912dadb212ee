package capture

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/errgroup"

	"github.com/bcaptain404/EtsyScraper/internal/artifact"
	"github.com/bcaptain404/EtsyScraper/internal/metrics"
)

// adsURLPattern is the loose filter for ads-related endpoints; --save-all
// bypasses it.
var adsURLPattern = regexp.MustCompile(`(?i)/api/|/v\d/|advert|ads|promoted|campaign|metrics`)

const (
	defaultWorkers = 4
	queueDepth     = 256
)

// sniffer filters responses on the event goroutine and hands matching ones
// to a bounded worker group. Response bodies are fetched over the driver
// connection, so they must never be read inside the event callback itself.
type sniffer struct {
	store *artifact.Store
	opts  Options
	log   Logger

	queue chan playwright.Response
	group *errgroup.Group

	mu     sync.Mutex
	closed bool
	rows   []metrics.Row
	files  int
}

func newSniffer(store *artifact.Store, opts Options) *sniffer {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	s := &sniffer{
		store: store,
		opts:  opts,
		log:   opts.Log,
		queue: make(chan playwright.Response, queueDepth),
		group: &errgroup.Group{},
	}
	for i := 0; i < workers; i++ {
		s.group.Go(s.worker)
	}
	return s
}

// enqueue runs on the event goroutine: cheap checks only, then a
// non-blocking handoff.
func (s *sniffer) enqueue(res playwright.Response) {
	rt := res.Request().ResourceType()
	if rt != "xhr" && rt != "fetch" {
		return
	}
	if s.opts.SaveAll {
		s.log("net", "%-6s %d %s", strings.ToUpper(rt), res.Status(), res.URL())
	}
	if !s.opts.SaveAll && !adsURLPattern.MatchString(res.URL()) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- res:
	default:
		s.log("warn", "response queue full, dropping %s", res.URL())
	}
}

// drain stops intake and waits for queued responses to finish.
func (s *sniffer) drain() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	s.group.Wait()
}

func (s *sniffer) worker() error {
	for res := range s.queue {
		s.process(res)
	}
	return nil
}

func (s *sniffer) process(res playwright.Response) {
	doc, ok := s.decode(res)
	if !ok {
		return
	}

	path, err := s.store.SaveJSON(artifact.SlugURL(res.URL()), doc)
	if err != nil {
		s.log("warn", "save payload: %v", err)
		return
	}
	name := filepath.Base(path)
	s.log("+", "JSON saved: %s", name)
	s.mu.Lock()
	s.files++
	s.mu.Unlock()

	if !metrics.LooksLikeMetrics(doc) {
		return
	}
	rows := metrics.ExtractDailyRows(doc)
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	s.rows = append(s.rows, rows...)
	s.mu.Unlock()
	s.log("+", "Extracted %d row(s) from %s", len(rows), name)
}

// decode reads and parses the body. Non-JSON content types are attempted
// only under save-all, and their parse failures stay silent; captures see
// plenty of HTML and beacons.
func (s *sniffer) decode(res playwright.Response) (any, bool) {
	ctype, err := res.HeaderValue("content-type")
	if err != nil {
		ctype = ""
	}
	isJSON := strings.Contains(strings.ToLower(ctype), "json")
	if !isJSON && !s.opts.SaveAll {
		return nil, false
	}

	body, err := res.Body()
	if err != nil {
		s.log("warn", "read body %s: %v", res.URL(), err)
		return nil, false
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		if isJSON {
			s.log("warn", "decode %s: %v", res.URL(), err)
		}
		return nil, false
	}
	return doc, true
}

// snapshot returns the collected rows and file count; call after drain.
func (s *sniffer) snapshot() ([]metrics.Row, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, s.files
}
