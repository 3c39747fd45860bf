package grpcserver

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/router"
)

type Server struct {
	Store  *bibliography.Store
	Logger *slog.Logger
}

func NewServer(store *bibliography.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Store: store, Logger: logger}
}

var errNotLoaded = status.Error(codes.Unavailable, "bibliography not loaded")

func (s *Server) GetEntry(ctx context.Context, req *GetEntryRequest) (*GetEntryResponse, error) {
	if req == nil || strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if !s.Store.IsLoaded() {
		return nil, errNotLoaded
	}

	e, ok := s.Store.GetEntryByID(req.ID)
	if !ok {
		return nil, status.Error(codes.NotFound, (&bibliography.NotFoundError{ID: req.ID}).Error())
	}
	return &GetEntryResponse{Entry: e}, nil
}

func (s *Server) SearchEntries(ctx context.Context, req *SearchEntriesRequest) (*SearchEntriesResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	if req.Limit < 0 || req.Offset < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit and offset must be >= 0")
	}
	if !s.Store.IsLoaded() {
		return nil, errNotLoaded
	}

	items := s.Store.SearchEntries(req.Query, req.Filters)
	resp := &SearchEntriesResponse{Total: len(items)}
	offset := min(req.Offset, len(items))
	items = items[offset:]
	if req.Limit > 0 && req.Limit < len(items) {
		items = items[:req.Limit]
	}
	resp.Entries = items
	return resp, nil
}

// Route parses a token and dispatches it against the store.
func (s *Server) Route(ctx context.Context, req *RouteRequest) (*RouteResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	r := router.ParseToken(req.Token)
	d := router.Dispatch(r, s.Store)
	if d.Kind == router.KindError {
		s.Logger.Error("route failed", "token", req.Token, "message", d.Message)
	}
	return &RouteResponse{Route: r.Describe(), Directive: d}, nil
}

func (s *Server) Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error) {
	return &StatusResponse{Status: s.Store.Status()}, nil
}
