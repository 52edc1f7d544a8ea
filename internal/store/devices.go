package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sweeney/stockwise/internal/devices"
)

const brainColumns = `id, network_id, location_id, type, status, firmware_version, last_seen, ip_address`

func scanBrain(s scanner) (devices.BrainConfig, error) {
	var b devices.BrainConfig
	var status string
	err := s.Scan(&b.BrainID, &b.NetworkID, &b.LocationID, &b.Type, &status, &b.FirmwareVersion, &b.LastSeen, &b.IPAddress)
	b.Status = devices.BrainStatus(status)
	return b, err
}

// CreateBrain registers a brain in provisioning state with a generated ID.
func (db *DB) CreateBrain(ctx context.Context, networkID, locationID string) (devices.BrainConfig, error) {
	b := devices.BrainConfig{
		BrainID:    newID(),
		NetworkID:  networkID,
		LocationID: locationID,
		Type:       devices.DeviceTypeBrain,
		Status:     devices.BrainProvisioning,
	}
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO brains (`+brainColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		b.BrainID, b.NetworkID, b.LocationID, b.Type, string(b.Status), b.FirmwareVersion, b.LastSeen, b.IPAddress)
	if err != nil {
		return devices.BrainConfig{}, wrapWrite("create brain", err)
	}
	db.changed(Change{Kind: KindBrains, NetworkID: networkID, LocationID: locationID})
	return b, nil
}

func (db *DB) GetBrain(ctx context.Context, networkID, locationID, brainID string) (devices.BrainConfig, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT `+brainColumns+` FROM brains WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, brainID)
	b, err := scanBrain(row)
	if err != nil {
		return devices.BrainConfig{}, notFound("get brain", err)
	}
	return b, nil
}

// ListBrains returns a location's brains ordered by ID.
func (db *DB) ListBrains(ctx context.Context, networkID, locationID string) ([]devices.BrainConfig, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT `+brainColumns+` FROM brains WHERE network_id = ? AND location_id = ? ORDER BY id`),
		networkID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list brains: %w", err)
	}
	defer rows.Close()

	out := []devices.BrainConfig{}
	for rows.Next() {
		b, err := scanBrain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan brain: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (db *DB) UpdateBrain(ctx context.Context, b devices.BrainConfig) error {
	res, err := db.ExecContext(ctx, db.Q(`UPDATE brains SET status = ?, firmware_version = ?, last_seen = ?, ip_address = ?
		WHERE network_id = ? AND location_id = ? AND id = ?`),
		string(b.Status), b.FirmwareVersion, b.LastSeen, b.IPAddress, b.NetworkID, b.LocationID, b.BrainID)
	if err != nil {
		return wrapWrite("update brain", err)
	}
	if err := expectRow("update brain", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindBrains, NetworkID: b.NetworkID, LocationID: b.LocationID})
	return nil
}

// DecommissionBrain marks a brain decommissioned without deleting it.
func (db *DB) DecommissionBrain(ctx context.Context, networkID, locationID, brainID string) error {
	res, err := db.ExecContext(ctx, db.Q(`UPDATE brains SET status = ? WHERE network_id = ? AND location_id = ? AND id = ?`),
		string(devices.BrainDecommissioned), networkID, locationID, brainID)
	if err != nil {
		return fmt.Errorf("decommission brain: %w", err)
	}
	if err := expectRow("decommission brain", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindBrains, NetworkID: networkID, LocationID: locationID})
	return nil
}

func (db *DB) DeleteBrain(ctx context.Context, networkID, locationID, brainID string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM brains WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, brainID)
	if err != nil {
		return fmt.Errorf("delete brain: %w", err)
	}
	if err := expectRow("delete brain", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindBrains, NetworkID: networkID, LocationID: locationID})
	return nil
}

const nodeColumns = `network_id, location_id, id, node_mac, paired_to_brain, firmware_version, last_seen, rssi, error_counters, status`

func scanNode(s scanner) (devices.NodeConfig, error) {
	var n devices.NodeConfig
	var counters, status string
	if err := s.Scan(&n.NetworkID, &n.LocationID, &n.NodeID, &n.NodeMAC, &n.PairedToBrain, &n.FirmwareVersion,
		&n.LastSeen, &n.RSSI, &counters, &status); err != nil {
		return devices.NodeConfig{}, err
	}
	n.Status = devices.NodeStatus(status)
	if counters != "" {
		if err := json.Unmarshal([]byte(counters), &n.ErrorCounters); err != nil {
			return devices.NodeConfig{}, fmt.Errorf("decode error_counters: %w", err)
		}
	}
	return n, nil
}

func encodeCounters(c map[string]int) (string, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	return string(b), err
}

// RegisterNode records a node under its MAC address in provisioning state.
// Registering the same MAC twice in a location returns ErrConflict.
func (db *DB) RegisterNode(ctx context.Context, networkID, locationID, mac, brainID string) (devices.NodeConfig, error) {
	n := devices.NodeConfig{
		NodeID:        mac,
		NodeMAC:       mac,
		NetworkID:     networkID,
		LocationID:    locationID,
		PairedToBrain: brainID,
		ErrorCounters: map[string]int{},
		Status:        devices.NodeProvisioning,
	}
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		n.NetworkID, n.LocationID, n.NodeID, n.NodeMAC, n.PairedToBrain, n.FirmwareVersion, n.LastSeen, n.RSSI, "{}", string(n.Status))
	if err != nil {
		return devices.NodeConfig{}, wrapWrite("register node", err)
	}
	db.changed(Change{Kind: KindNodes, NetworkID: networkID, LocationID: locationID})
	return n, nil
}

func (db *DB) GetNode(ctx context.Context, networkID, locationID, nodeID string) (devices.NodeConfig, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT `+nodeColumns+` FROM nodes WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, nodeID)
	n, err := scanNode(row)
	if err != nil {
		return devices.NodeConfig{}, notFound("get node", err)
	}
	return n, nil
}

// ListNodes returns a location's nodes ordered by ID.
func (db *DB) ListNodes(ctx context.Context, networkID, locationID string) ([]devices.NodeConfig, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT `+nodeColumns+` FROM nodes WHERE network_id = ? AND location_id = ? ORDER BY id`),
		networkID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	out := []devices.NodeConfig{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (db *DB) UpdateNode(ctx context.Context, n devices.NodeConfig) error {
	counters, err := encodeCounters(n.ErrorCounters)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	res, err := db.ExecContext(ctx, db.Q(`UPDATE nodes SET paired_to_brain = ?, firmware_version = ?, last_seen = ?, rssi = ?,
		error_counters = ?, status = ? WHERE network_id = ? AND location_id = ? AND id = ?`),
		n.PairedToBrain, n.FirmwareVersion, n.LastSeen, n.RSSI, counters, string(n.Status), n.NetworkID, n.LocationID, n.NodeID)
	if err != nil {
		return wrapWrite("update node", err)
	}
	if err := expectRow("update node", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindNodes, NetworkID: n.NetworkID, LocationID: n.LocationID})
	return nil
}

func (db *DB) DeleteNode(ctx context.Context, networkID, locationID, nodeID string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM nodes WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, nodeID)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if err := expectRow("delete node", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindNodes, NetworkID: networkID, LocationID: locationID})
	return nil
}
