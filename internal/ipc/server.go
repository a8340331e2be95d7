package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"prodflow/internal/api"
	"prodflow/internal/audit"
	"prodflow/internal/daemon"
	"prodflow/internal/logging"
	"prodflow/internal/request"
	"prodflow/internal/transition"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Prodflow", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.MonitorRunning = status.MonitorRunning
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	resp.StageStats = make(map[string]int, len(status.StageStats))
	for stage, count := range status.StageStats {
		resp.StageStats[string(stage)] = count
	}
	resp.Preflight = make([]PreflightResult, 0, len(status.Preflight))
	for _, result := range status.Preflight {
		resp.Preflight = append(resp.Preflight, PreflightResult{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return nil
}

func (s *service) Create(req CreateRequestRequest, resp *CreateRequestResponse) error {
	record := &request.Request{
		Name:          req.Name,
		Department:    req.Department,
		ContactPerson: req.ContactPerson,
	}
	record.Customer.CompanyName = req.CustomerName
	record.CampaignDetail.CampaignName = req.CampaignName
	record.CampaignDetail.Budget = req.Budget

	created, err := s.daemon.CreateRequest(s.ctx, record, req.ActorID)
	if err != nil {
		return err
	}
	resp.Request = api.FromRequest(created)
	s.log().Info("request created via IPC",
		logging.Int64(logging.FieldRequestID, created.ID),
		logging.String(logging.FieldEventType, "request_create"))
	return nil
}

func (s *service) List(req ListRequest, resp *ListResponse) error {
	stages := make([]request.Stage, 0, len(req.Stages))
	for _, raw := range req.Stages {
		parsed, ok := request.ParseStage(raw)
		if !ok {
			continue
		}
		stages = append(stages, parsed)
	}
	items, err := s.daemon.ListRequests(s.ctx, stages)
	if err != nil {
		return err
	}
	resp.Requests = api.FromRequests(items)
	return nil
}

func (s *service) Describe(req DescribeRequest, resp *DescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid request id %d", req.ID)
	}
	item, err := s.daemon.GetRequest(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("request %d not found", req.ID)
	}
	resp.Request = api.FromRequest(item)
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid request id %d", req.ID)
	}
	entries, err := s.daemon.GetHistory(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Entries = api.FromHistory(entries)
	return nil
}

func (s *service) Mutate(req MutateRequest, resp *MutateResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid request id %d", req.ID)
	}
	mut := audit.Mutation{
		Name:             req.Name,
		Department:       req.Department,
		ContactPerson:    req.ContactPerson,
		AssignedActorID:  req.AssignedActorID,
		DeliveryDate:     req.DeliveryDate,
		Observations:     req.Observations,
		PreparationState: req.PreparationState,
		Pieces:           req.Pieces,
		Formats:          req.Formats,
		TechnicalNotes:   req.TechnicalNotes,
		DeliveryChannel:  req.DeliveryChannel,
	}
	result, err := s.daemon.ApplyMutation(s.ctx, req.ID, req.ActorID, mut)
	if err != nil {
		return err
	}
	resp.Request = api.FromRequest(result.Request)
	resp.Entries = api.FromHistory(result.Entries)
	resp.Dropped = result.Dropped
	s.log().Info("mutation applied via IPC",
		logging.Int64(logging.FieldRequestID, req.ID),
		logging.Int("changes", len(result.Entries)),
		logging.String(logging.FieldEventType, "request_mutate"))
	return nil
}

func (s *service) Advance(req AdvanceRequest, resp *AdvanceResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid request id %d", req.ID)
	}
	trigger, ok := transition.ParseTrigger(req.Trigger)
	if !ok {
		return fmt.Errorf("unknown trigger %q", req.Trigger)
	}
	result, err := s.daemon.AdvanceStage(s.ctx, req.ID, req.ActorID, trigger)
	if err != nil {
		return err
	}
	resp.Request = api.FromRequest(result.Request)
	resp.From = string(result.From)
	resp.To = string(result.To)
	resp.Changed = result.Changed
	s.log().Info("stage advanced via IPC",
		logging.Int64(logging.FieldRequestID, req.ID),
		logging.String("from", resp.From),
		logging.String("to", resp.To),
		logging.String(logging.FieldEventType, "request_advance"))
	return nil
}

func (s *service) Deadlines(_ DeadlinesRequest, resp *DeadlinesResponse) error {
	items, err := s.daemon.NearingDeadline(s.ctx)
	if err != nil {
		return err
	}
	resp.Requests = api.FromRequests(items)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
