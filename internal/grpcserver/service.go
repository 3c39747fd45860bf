package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/router"
	"zweigbib/pkg/models"
)

const ServiceName = "zweigbib.Bibliography"

type GetEntryRequest struct {
	ID string `json:"id"`
}

type GetEntryResponse struct {
	Entry models.Entry `json:"entry"`
}

type SearchEntriesRequest struct {
	Query   string               `json:"query,omitempty"`
	Filters bibliography.Filters `json:"filters,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
	Offset  int                  `json:"offset,omitempty"`
}

type SearchEntriesResponse struct {
	Total   int            `json:"total"`
	Entries []models.Entry `json:"entries"`
}

type RouteRequest struct {
	Token string `json:"token"`
}

type RouteResponse struct {
	Route     router.Descriptor `json:"route"`
	Directive router.Directive  `json:"directive"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Status bibliography.Status `json:"status"`
}

// BibliographyServer is the service implemented by Server.
type BibliographyServer interface {
	GetEntry(context.Context, *GetEntryRequest) (*GetEntryResponse, error)
	SearchEntries(context.Context, *SearchEntriesRequest) (*SearchEntriesResponse, error)
	Route(context.Context, *RouteRequest) (*RouteResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
}

func RegisterBibliographyServer(s grpc.ServiceRegistrar, srv BibliographyServer) {
	s.RegisterService(&BibliographyServiceDesc, srv)
}

// unary builds a method handler for one request type.
func unary[Req any, Resp any](method string, call func(BibliographyServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BibliographyServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BibliographyServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var BibliographyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BibliographyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetEntry", BibliographyServer.GetEntry),
		unary("SearchEntries", BibliographyServer.SearchEntries),
		unary("Route", BibliographyServer.Route),
		unary("Status", BibliographyServer.Status),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zweigbib/bibliography",
}

// Client calls the service over a connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEntry(ctx context.Context, in *GetEntryRequest, opts ...grpc.CallOption) (*GetEntryResponse, error) {
	return invoke[GetEntryResponse](ctx, c.cc, "GetEntry", in, opts)
}

func (c *Client) SearchEntries(ctx context.Context, in *SearchEntriesRequest, opts ...grpc.CallOption) (*SearchEntriesResponse, error) {
	return invoke[SearchEntriesResponse](ctx, c.cc, "SearchEntries", in, opts)
}

func (c *Client) Route(ctx context.Context, in *RouteRequest, opts ...grpc.CallOption) (*RouteResponse, error) {
	return invoke[RouteResponse](ctx, c.cc, "Route", in, opts)
}

func (c *Client) Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, "Status", in, opts)
}
