// Package grpcserver adapts the matching engine to gRPC. Messages and
// the service descriptor are hand-maintained protobuf wire format; see
// codec.go for the content subtype clients must use.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"matchbook/domain/book"
	"matchbook/service"
)

type Server struct {
	log *slog.Logger
	svc *service.Engine
}

func NewServer(log *slog.Logger, svc *service.Engine) *Server {
	return &Server{log: log, svc: svc}
}

func (s *Server) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	side, err := toSide(req.Side)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Place(ctx, book.OrderSpec{
		Symbol:   req.Symbol,
		ClientID: req.ClientID,
		Side:     side,
		Price:    req.Price,
		Shares:   req.Shares,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return &PlaceOrderResponse{
		OrderID:     res.OrderID,
		ExecutedQty: res.ExecutedQty,
		Remaining:   res.Remaining,
		AvgPrice:    res.AvgPrice.String(),
		Rested:      res.Rested,
	}, nil
}

func (s *Server) GetOrder(ctx context.Context, req *GetOrderRequest) (*GetOrderResponse, error) {
	o, err := s.svc.Order(ctx, req.OrderID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetOrderResponse{
		OrderID:     o.ID,
		ClientID:    o.ClientID,
		Side:        uint64(o.Side),
		Price:       o.Price,
		Remaining:   o.Shares,
		ExecutedQty: o.ExecutedQty,
		AvgPrice:    o.AvgPrice.String(),
		Symbol:      o.Symbol,
	}, nil
}

func (s *Server) GetDepth(ctx context.Context, req *DepthRequest) (*DepthResponse, error) {
	side, err := toSide(req.Side)
	if err != nil {
		return nil, err
	}
	levels, err := s.svc.Depth(ctx, side, int(req.MaxLevels))
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &DepthResponse{Levels: make([]DepthLevel, 0, len(levels))}
	for _, lvl := range levels {
		resp.Levels = append(resp.Levels, DepthLevel{
			Price:  lvl.Price,
			Orders: int64(lvl.Orders),
			Volume: lvl.Volume,
		})
	}
	return resp, nil
}

func toSide(v uint64) (book.Side, error) {
	switch v {
	case 0:
		return book.Buy, nil
	case 1:
		return book.Sell, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "invalid side %d", v)
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, book.ErrSelfTrade):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, book.ErrInvalidQuantity),
		errors.Is(err, book.ErrInvalidPrice),
		errors.Is(err, book.ErrSymbolMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, book.ErrUnknownOrder):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
