package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/IbrahimUsmani118/versenav/internal/corpus"
	"github.com/IbrahimUsmani118/versenav/internal/match"
	"github.com/IbrahimUsmani118/versenav/internal/matchlog"
	"github.com/IbrahimUsmani118/versenav/internal/quran"
)

// matchRequest is the body of POST /v1/match.
type matchRequest struct {
	Transcript string `json:"transcript"`
}

// matchResponse is the body of POST /v1/match and /v1/transcribe-match.
// Result is null when the cascade produced no match.
type matchResponse struct {
	Transcript string        `json:"transcript"`
	Result     *match.Result `json:"result"`
}

// searchRequest is the body of POST /v1/search.
type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// searchResponse is the body of POST /v1/search.
type searchResponse struct {
	Query   string          `json:"query"`
	Results []corpus.Result `json:"results"`
}

func (s *Server) handleMatch(c echo.Context) error {
	var req matchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res := s.runMatch(c, req.Transcript)
	return c.JSON(http.StatusOK, matchResponse{Transcript: req.Transcript, Result: res})
}

// runMatch executes the cascade and records metrics and the match log
// entry. Persistence failures are logged, never surfaced to the caller.
func (s *Server) runMatch(c echo.Context, transcript string) *match.Result {
	ctx := c.Request().Context()

	start := time.Now()
	res := s.deps.Matcher.Match(ctx, transcript)
	s.deps.Metrics.MatchDuration.Record(ctx, time.Since(start).Seconds())

	if res != nil {
		s.deps.Metrics.RecordMatch(ctx, string(res.Type), "hit")
	} else {
		s.deps.Metrics.RecordMatch(ctx, matchlog.TypeNone, "miss")
	}

	if s.deps.MatchLog != nil {
		entry := matchlog.NewEntry(transcript, res)
		if err := s.deps.MatchLog.Record(ctx, &entry); err != nil {
			slog.Warn("failed to persist match outcome", "error", err)
		}
	}
	return res
}

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	start := time.Now()
	results, err := s.deps.Corpus.FindVerse(req.Query, req.Limit)
	s.deps.Metrics.SearchDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, corpus.ErrNotLoaded) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "verse corpus not loaded")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, searchResponse{Query: req.Query, Results: results})
}

// verseResponse is the body of GET /v1/verses/:surah/:ayah.
type verseResponse struct {
	Surah     int    `json:"surah"`
	Ayah      int    `json:"ayah"`
	SurahName string `json:"surahName"`
	Arabic    string `json:"arabic"`
	English   string `json:"english"`
}

func (s *Server) handleVerse(c echo.Context) error {
	surah, err := strconv.Atoi(c.Param("surah"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "surah must be an integer")
	}
	ayah, err := strconv.Atoi(c.Param("ayah"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "ayah must be an integer")
	}
	if !(quran.Ref{Surah: surah, Ayah: ayah}).Valid() {
		return echo.NewHTTPError(http.StatusNotFound, "no such verse")
	}

	v, found, err := s.deps.Corpus.Verse(surah, ayah)
	if err != nil {
		if errors.Is(err, corpus.ErrNotLoaded) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "verse corpus not loaded")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "verse not in corpus")
	}

	return c.JSON(http.StatusOK, verseResponse{
		Surah:     v.Surah,
		Ayah:      v.Ayah,
		SurahName: quran.SurahName(v.Surah),
		Arabic:    v.Arabic,
		English:   v.English,
	})
}

// maxAudioBytes bounds uploaded recordings. Whisper itself caps uploads at
// 25 MB.
const maxAudioBytes = 25 << 20

func (s *Server) handleTranscribeMatch(c echo.Context) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, `multipart field "audio" is required`)
	}
	if fh.Size > maxAudioBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "audio upload exceeds 25 MB")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read audio upload")
	}
	defer f.Close()

	ctx := c.Request().Context()
	start := time.Now()
	transcript, err := s.deps.Transcriber.Transcribe(ctx, f, fh.Filename)
	s.deps.Metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		slog.Warn("transcription failed", "error", err, "filename", fh.Filename)
		return echo.NewHTTPError(http.StatusBadGateway, "transcription failed")
	}

	res := s.runMatch(c, transcript)
	return c.JSON(http.StatusOK, matchResponse{Transcript: transcript, Result: res})
}

// matchLogResponse is the body of GET /v1/matchlog.
type matchLogResponse struct {
	Entries []matchlog.Entry `json:"entries"`
}

func (s *Server) handleMatchLog(c echo.Context) error {
	limit := s.deps.RecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	entries, err := s.deps.MatchLog.Recent(c.Request().Context(), limit)
	if err != nil {
		slog.Error("match log listing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "match log unavailable")
	}
	if entries == nil {
		entries = []matchlog.Entry{}
	}
	return c.JSON(http.StatusOK, matchLogResponse{Entries: entries})
}
