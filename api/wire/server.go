// Package wire serves the fixed 32-byte binary protocol over TCP for
// transports that cannot afford JSON. Each inbound frame is one
// operation; every fill an operation produces is answered with a pair
// of execute frames, one per side.
package wire

import (
	"context"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"

	"clob/domain/orderbook"
	"clob/protocol"
	"clob/service"
)

type Server struct {
	svc *service.OrderService
	log *zap.Logger
}

func NewServer(svc *service.OrderService, log *zap.Logger) *Server {
	return &Server{svc: svc, log: log}
}

// Serve accepts connections until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	var in [protocol.MessageSize]byte

	for {
		if _, err := io.ReadFull(conn, in[:]); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("wire read failed", zap.Error(err))
			}
			return
		}
		msg, err := protocol.Decode(in[:])
		if err != nil {
			// Framing is fixed-width; an undecodable frame means the
			// stream is garbage. Drop the connection.
			s.log.Warn("wire decode failed", zap.Error(err))
			return
		}
		out, err := s.dispatch(msg)
		if err != nil {
			s.log.Warn("wire request rejected", zap.Error(err))
			return
		}
		if len(out) > 0 {
			if _, err := conn.Write(out); err != nil {
				return
			}
		}
	}
}

// dispatch applies one frame and returns the execute frames it earned.
func (s *Server) dispatch(msg protocol.Message) ([]byte, error) {
	switch msg.Type {
	case protocol.MsgAdd:
		res, err := s.svc.PlaceOrder(msg.OrderID, sideOf(msg.Side), msg.Price, msg.Qty)
		if err != nil {
			return nil, err
		}
		return executeFrames(res), nil

	case protocol.MsgCancel:
		s.svc.Cancel(msg.OrderID)
		return nil, nil

	case protocol.MsgModify:
		res, found, err := s.svc.Modify(msg.OrderID, sideOf(msg.Side), msg.Price, msg.Qty)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return executeFrames(res), nil

	default:
		return nil, protocol.ErrBadType
	}
}

func executeFrames(res service.PlaceResult) []byte {
	out := make([]byte, 0, len(res.Trades)*2*protocol.MessageSize)
	for _, t := range res.Trades {
		out = protocol.Execute(protocol.SideBuy, t.BuyOrderID, t.Price, t.Qty).Append(out)
		out = protocol.Execute(protocol.SideSell, t.SellOrderID, t.Price, t.Qty).Append(out)
	}
	return out
}

func sideOf(b byte) orderbook.Side {
	if b == protocol.SideSell {
		return orderbook.Ask
	}
	return orderbook.Bid
}
