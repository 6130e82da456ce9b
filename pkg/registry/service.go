package registry

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// ServiceManager ties consul registration to the process lifecycle:
// register on Start, deregister on SIGINT/SIGTERM.
type ServiceManager struct {
	registry      *ConsulRegistry
	serviceConfig *ServiceConfig
	stopChan      chan os.Signal
}

func NewServiceManager(consulConfig *ConsulConfig, serviceConfig *ServiceConfig) (*ServiceManager, error) {
	consulRegistry, err := NewConsulRegistry(consulConfig)
	if err != nil {
		return nil, err
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	return &ServiceManager{
		registry:      consulRegistry,
		serviceConfig: serviceConfig,
		stopChan:      stopChan,
	}, nil
}

func (sm *ServiceManager) Start() error {
	if err := sm.registry.RegisterService(sm.serviceConfig); err != nil {
		return fmt.Errorf("service registration failed: %w", err)
	}

	go sm.gracefulShutdown()

	log.Printf("%s registered with consul", sm.serviceConfig.Name)
	return nil
}

func (sm *ServiceManager) gracefulShutdown() {
	<-sm.stopChan
	log.Println("shutdown signal received, deregistering")

	if err := sm.registry.DeregisterService(sm.serviceConfig.ID); err != nil {
		log.Printf("service deregistration failed: %v", err)
	}

	os.Exit(0)
}

func (sm *ServiceManager) DiscoverService(serviceName string) ([]*ServiceInstance, error) {
	return sm.registry.DiscoverService(serviceName)
}
