package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Registration describes the service instance announced to Consul.
type Registration struct {
	ServiceName string
	Host        string
	Port        int
	HealthPath  string
}

// ConsulRegistrar registers and deregisters one service instance.
type ConsulRegistrar struct {
	client *api.Client
	logger *zerolog.Logger
	id     string
}

// NewConsulRegistrar connects to the Consul agent at address.
func NewConsulRegistrar(address string, logger *zerolog.Logger) (*ConsulRegistrar, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &ConsulRegistrar{client: client, logger: logger}, nil
}

// Register announces the instance with an HTTP health check.
func (r *ConsulRegistrar) Register(reg Registration) error {
	r.id = InstanceID(reg)

	err := r.client.Agent().ServiceRegister(&api.AgentServiceRegistration{
		ID:      r.id,
		Name:    reg.ServiceName,
		Address: reg.Host,
		Port:    reg.Port,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", reg.Host, reg.Port, reg.HealthPath),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	})
	if err != nil {
		return fmt.Errorf("register service: %w", err)
	}

	r.logger.Info().Str("service_id", r.id).Msg("registered service with consul")
	return nil
}

// Deregister removes the instance registered by Register.
func (r *ConsulRegistrar) Deregister() error {
	if r.id == "" {
		return nil
	}
	if err := r.client.Agent().ServiceDeregister(r.id); err != nil {
		return fmt.Errorf("deregister service: %w", err)
	}

	r.logger.Info().Str("service_id", r.id).Msg("deregistered service from consul")
	return nil
}

// InstanceID is the Consul service id for reg.
func InstanceID(reg Registration) string {
	return fmt.Sprintf("%s-%s-%d", reg.ServiceName, reg.Host, reg.Port)
}
