package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rohmanhakim/site-search/internal/config"
	"github.com/rohmanhakim/site-search/internal/extractor"
	"github.com/rohmanhakim/site-search/internal/fetcher"
	"github.com/rohmanhakim/site-search/internal/frontier"
	"github.com/rohmanhakim/site-search/internal/mdconvert"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/internal/storage"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/rohmanhakim/site-search/pkg/limiter"
	"github.com/rohmanhakim/site-search/pkg/urlutil"
	"golang.org/x/net/html"
	"golang.org/x/sync/semaphore"
)

/*
 Scheduler is the sole control-plane authority of the crawl.

 Ownership:
 - One dispatcher goroutine (the caller of Crawl) owns the frontier,
   the visited set and the result list. Nothing else touches them,
   so they need no locks.
 - Crawl tasks only fetch and extract. They hand their outcome back
   over a completion channel and never enqueue URLs themselves.

 Admission rules, checked when an entry is dequeued:
 - depth must not exceed maxDepth
 - the URL must not have been dispatched before
 - results plus in-flight tasks must stay below maxPages

 At most `concurrency` tasks run at once; each holds one semaphore
 permit until the dispatcher has consumed its completion. The
 completion channel is buffered to the same size, so a finishing task
 never blocks.

 Failure handling:
 - recoverable pipeline errors skip the page and are counted
 - fatal pipeline errors, task panics and permit failures abort the crawl
 - archive failures are counted but never drop a page from the results

 Metadata emission is observational only and MUST NOT influence
 scheduling or crawl termination.
*/

// Archiver stores a snapshot of a crawled page. It is called from crawl
// tasks and must be safe for concurrent use.
type Archiver interface {
	Archive(sourceUrl string, title string, documentRoot *html.Node) (storage.WriteResult, failure.ClassifiedError)
}

var _ Archiver = (*storage.PageArchiver)(nil)

type Scheduler struct {
	cfg            config.Config
	metadataSink   metadata.MetadataSink
	crawlFinalizer metadata.CrawlFinalizer
	fetcher        fetcher.Fetcher
	extractor      extractor.Extractor
	archiver       Archiver
	crawlID        string
}

// NewScheduler wires the production pipeline around a single recorder.
func NewScheduler(cfg config.Config, recorder *metadata.Recorder) Scheduler {
	var rateLimiter limiter.RateLimiter = limiter.NoopRateLimiter{}
	if cfg.RequestsPerSecond() > 0 {
		rateLimiter = limiter.NewConcurrentRateLimiter(cfg.RequestsPerSecond(), 1)
	}

	htmlFetcher := fetcher.NewHtmlFetcher(recorder)
	htmlFetcher.Init(fetcher.NewHTTPClient(cfg.FetchTimeout()), cfg.UserAgent(), rateLimiter)
	domExtractor := extractor.NewDomExtractor(recorder)

	var archiver Archiver
	if cfg.ArchiveDir() != "" {
		localSink := storage.NewLocalSink(recorder)
		archiver = storage.NewPageArchiver(cfg.ArchiveDir(), mdconvert.NewRule(recorder), &localSink)
	}

	s := NewSchedulerWithDeps(cfg, recorder, recorder, &htmlFetcher, &domExtractor, archiver)
	s.crawlID = recorder.CrawlID()
	return s
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies.
// A nil archiver disables page archiving.
func NewSchedulerWithDeps(
	cfg config.Config,
	crawlFinalizer metadata.CrawlFinalizer,
	metadataSink metadata.MetadataSink,
	pageFetcher fetcher.Fetcher,
	pageExtractor extractor.Extractor,
	archiver Archiver,
) Scheduler {
	return Scheduler{
		cfg:            cfg,
		metadataSink:   metadataSink,
		crawlFinalizer: crawlFinalizer,
		fetcher:        pageFetcher,
		extractor:      pageExtractor,
		archiver:       archiver,
	}
}

// Crawl runs a breadth-first crawl from startUrl, staying on its host.
// Results are returned in completion order. Final statistics are recorded
// exactly once, whether or not the crawl succeeds.
func (s *Scheduler) Crawl(ctx context.Context, startUrl string) (CrawlingExecution, error) {
	crawlStartTime := time.Now()

	var results []CrawlResult
	var totalErrors int

	defer func() {
		s.crawlFinalizer.RecordFinalCrawlStats(
			len(results),
			totalErrors,
			time.Since(crawlStartTime),
		)
	}()

	seed, parseErr := urlutil.ParseSeed(startUrl)
	if parseErr != nil {
		totalErrors++
		s.metadataSink.RecordError(
			time.Now(),
			"scheduler",
			"Scheduler.Crawl",
			metadata.CauseContentInvalid,
			parseErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, startUrl),
			},
		)
		return CrawlingExecution{}, parseErr
	}

	// cancelled on abort so in-flight fetches return early
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	concurrency := s.cfg.Concurrency()
	maxPages := s.cfg.MaxPages()
	maxDepth := s.cfg.MaxDepth()

	permits := semaphore.NewWeighted(int64(concurrency))
	completions := make(chan taskOutcome, concurrency)
	crawlFrontier := frontier.NewFrontier()
	crawlFrontier.Push(frontier.NewEntry(seed, 0))

	inFlight := 0
	var abortErr error

	for {
		for abortErr == nil && inFlight < concurrency && len(results)+inFlight < maxPages {
			entry, ok := crawlFrontier.Pop()
			if !ok {
				break
			}
			if entry.Depth() > maxDepth {
				continue
			}
			if !crawlFrontier.MarkVisited(entry) {
				continue
			}
			if err := s.acquirePermit(ctx, permits); err != nil {
				abortErr = err
				cancel()
				break
			}
			inFlight++
			go s.runTask(taskCtx, entry, completions)
		}

		if inFlight == 0 {
			break
		}

		outcome := <-completions
		inFlight--
		permits.Release(1)

		if abortErr != nil {
			// draining after an abort
			continue
		}

		if outcome.panicked {
			abortErr = s.recordConcurrencyError(&ConcurrencyError{
				Message: fmt.Sprintf("%v", outcome.panicValue),
				Cause:   ErrCauseTaskPanicked,
			})
			totalErrors++
			cancel()
			continue
		}

		if outcome.err != nil {
			totalErrors++
			if failure.IsFatal(outcome.err) {
				abortErr = outcome.err
				cancel()
			}
			continue
		}

		if outcome.archiveErr != nil {
			totalErrors++
		}

		results = append(results, outcome.result)
		for _, link := range outcome.result.links {
			if !urlutil.SameSite(seed, link) {
				continue
			}
			next := frontier.NewEntry(link, outcome.depth+1)
			if crawlFrontier.IsVisited(next.Key()) {
				continue
			}
			crawlFrontier.Push(next)
		}
	}

	if abortErr == nil && ctx.Err() != nil {
		abortErr = s.recordConcurrencyError(&ConcurrencyError{
			Message: ctx.Err().Error(),
			Cause:   ErrCausePermitUnavailable,
			Err:     ctx.Err(),
		})
	}
	if abortErr != nil {
		return CrawlingExecution{}, abortErr
	}

	return CrawlingExecution{
		Results:     results,
		TotalErrors: totalErrors,
		Duration:    time.Since(crawlStartTime),
		CrawlID:     s.crawlID,
	}, nil
}

func (s *Scheduler) acquirePermit(ctx context.Context, permits *semaphore.Weighted) *ConcurrencyError {
	// Acquire may succeed on an already cancelled context, so check first
	err := ctx.Err()
	if err == nil {
		err = permits.Acquire(ctx, 1)
	}
	if err == nil {
		return nil
	}
	return s.recordConcurrencyError(&ConcurrencyError{
		Message: err.Error(),
		Cause:   ErrCausePermitUnavailable,
		Err:     err,
	})
}

func (s *Scheduler) recordConcurrencyError(err *ConcurrencyError) *ConcurrencyError {
	s.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		"Scheduler.Crawl",
		mapConcurrencyErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{},
	)
	return err
}

// runTask always delivers exactly one outcome, even if the pipeline panics.
func (s *Scheduler) runTask(ctx context.Context, entry frontier.Entry, completions chan<- taskOutcome) {
	outcome := taskOutcome{depth: entry.Depth()}
	defer func() {
		if r := recover(); r != nil {
			outcome = taskOutcome{
				depth:      entry.Depth(),
				panicValue: r,
				panicked:   true,
			}
		}
		completions <- outcome
	}()

	result, documentRoot, err := s.processPage(ctx, entry)
	if err != nil {
		outcome.err = err
		return
	}
	outcome.result = result

	if s.archiver == nil {
		return
	}
	if _, archiveErr := s.archiver.Archive(result.URL(), result.Title(), documentRoot); archiveErr != nil {
		outcome.archiveErr = archiveErr
	}
}

func (s *Scheduler) processPage(ctx context.Context, entry frontier.Entry) (CrawlResult, *html.Node, failure.ClassifiedError) {
	pageUrl := entry.URL()

	fetchResult, err := s.fetcher.Fetch(ctx, entry.Depth(), pageUrl)
	if err != nil {
		return CrawlResult{}, nil, err
	}

	extraction, err := s.extractor.Extract(pageUrl, fetchResult.Body())
	if err != nil {
		return CrawlResult{}, nil, err
	}

	return newCrawlResult(entry.Key(), extraction), extraction.DocumentRoot, nil
}
