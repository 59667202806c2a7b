package mockarray

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nholik/flash-sentinel/internal/purity"
)

// ErrBaysFull is returned by AddDrive when every bay holds a drive.
var ErrBaysFull = errors.New("all drive slots have been filled")

// AddDrive installs a healthy drive in the next free bay. A capacity of
// zero or less uses DefaultDriveCapacity.
func (s *Server) AddDrive(capacity int64) error {
	if capacity <= 0 {
		capacity = DefaultDriveCapacity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextDrive >= len(s.data.drives) {
		return ErrBaysFull
	}
	d := &s.data.drives[s.nextDrive]
	s.nextDrive++
	d.Status = "healthy"
	d.Capacity = ptr(capacity)
	d.ID = ptr(uuid.NewString())
	d.Type = ptr("SSD")
	return nil
}

// SetDriveStatus changes the status of the drive in bay.
func (s *Server) SetDriveStatus(bay int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bay < 0 || bay >= len(s.data.drives) {
		return fmt.Errorf("no drive bay %d", bay)
	}
	s.data.drives[bay].Status = status
	return nil
}

// SetControllerStatus changes the status and mode of a controller.
func (s *Server) SetControllerStatus(name, status, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.controllers {
		ct := &s.data.controllers[i]
		if ct.Name != nil && *ct.Name == name {
			ct.Status = ptr(status)
			ct.Mode = ptr(mode)
			return nil
		}
	}
	return fmt.Errorf("no controller %q", name)
}

// SetComponentStatus changes the status of a static hardware component.
func (s *Server) SetComponentStatus(name, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.hardware {
		hw := &s.data.hardware[i]
		if hw.Name != nil && *hw.Name == name {
			hw.Status = status
			return nil
		}
	}
	return fmt.Errorf("no component %q", name)
}

// AddComponent appends a static hardware component.
func (s *Server) AddComponent(hw purity.Hardware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.hardware = append(s.data.hardware, hw)
}

// SetPortReading replaces one transceiver reading. metric is one of
// temperature, voltage, tx_bias, tx_power or rx_power; index selects the
// entry within that list.
func (s *Server) SetPortReading(port, metric string, index int, status string, measurement float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.port(port)
	if err != nil {
		return err
	}
	var list []purity.PortReading
	switch metric {
	case "temperature":
		list = p.Temperature
	case "voltage":
		list = p.Voltage
	case "tx_bias":
		list = p.TxBias
	case "tx_power":
		list = p.TxPower
	case "rx_power":
		list = p.RxPower
	default:
		return fmt.Errorf("unknown port metric %q", metric)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("port %q has no %s reading %d", port, metric, index)
	}
	list[index].Status = status
	list[index].Measurement = measurement
	return nil
}

// SetPortFlag raises or clears a transceiver flag (tx_fault or rx_los).
func (s *Server) SetPortFlag(port, flag string, index int, raised bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.port(port)
	if err != nil {
		return err
	}
	var list []purity.PortFlag
	switch flag {
	case "tx_fault":
		list = p.TxFault
	case "rx_los":
		list = p.RxLOS
	default:
		return fmt.Errorf("unknown port flag %q", flag)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("port %q has no %s flag %d", port, flag, index)
	}
	list[index].Flag = raised
	return nil
}

func (s *Server) port(name string) (*purity.PortDetails, error) {
	for i := range s.data.ports {
		p := &s.data.ports[i]
		if p.Name != nil && *p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no port %q", name)
}

// AddAlert appends an alert.
func (s *Server) AddAlert(alert purity.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alert.ID == nil {
		alert.ID = ptr(uuid.NewString())
	}
	s.data.alerts = append(s.data.alerts, alert)
}

// SetCertificates replaces the installed certificates.
func (s *Server) SetCertificates(certs ...purity.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.certificates = append([]purity.Certificate(nil), certs...)
}

// SetArrays replaces the array entries.
func (s *Server) SetArrays(arrays ...purity.Array) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.arrays = append([]purity.Array(nil), arrays...)
}

// AddArrayConnection appends a replication peer.
func (s *Server) AddArrayConnection(conn purity.ArrayConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn.ID == nil {
		conn.ID = ptr(uuid.NewString())
	}
	s.data.arrayConnections = append(s.data.arrayConnections, conn)
}

// InjectFault makes every request for resource answer with an error
// envelope and status. A 2xx status yields an envelope in a successful
// response.
func (s *Server) InjectFault(resource string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[resource] = status
}

// ClearFault removes an injected fault.
func (s *Server) ClearFault(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, resource)
}
