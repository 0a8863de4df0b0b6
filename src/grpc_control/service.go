package grpc_control

import (
	"context"
	"fmt"
	"net"

	"chart-stream/src/logger"
	"chart-stream/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-checked service; "" reports the same status.
const ServiceName = "chartstream.ChartStream"

// ControlService exposes the standard gRPC health protocol for orchestrators.
// It reports NOT_SERVING until a dataset with at least one record has been
// published.
type ControlService struct {
	Config *models.MConfig
	Logger *logger.Logger
	Health *health.Server
	server *grpc.Server
}

// -----------------------------------------------------------------------------

func NewControlService(cfg *models.MConfig, log *logger.Logger) *ControlService {
	s := &ControlService{
		Config: cfg,
		Logger: log,
		Health: health.NewServer(),
		server: grpc.NewServer(),
	}

	healthpb.RegisterHealthServer(s.server, s.Health)
	reflection.Register(s.server)

	s.setServing(false)
	return s
}

// -----------------------------------------------------------------------------

// OnDatasetPublished updates the serving status; register it with the dataset store.
func (s *ControlService) OnDatasetPublished(ds *models.MDataset) {
	s.setServing(!ds.IsEmpty())
}

func (s *ControlService) setServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", status)
	s.Health.SetServingStatus(ServiceName, status)
}

// -----------------------------------------------------------------------------

// Serve listens on grpc_host:grpc_port until ctx is cancelled.
func (s *ControlService) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on an existing listener until ctx is cancelled.
func (s *ControlService) ServeListener(ctx context.Context, lis net.Listener) error {
	s.Logger.Info("gRPC health service listening on %s", lis.Addr())

	go func() {
		<-ctx.Done()
		s.Health.Shutdown()
		s.server.GracefulStop()
	}()

	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}
