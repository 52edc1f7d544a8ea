package store

import (
	"context"
	"fmt"

	"github.com/sweeney/stockwise/internal/inventory"
)

// CreateShelf inserts a shelf with a generated ID.
func (db *DB) CreateShelf(ctx context.Context, sh inventory.ShelfConfig) (inventory.ShelfConfig, error) {
	sh.ShelfID = newID()
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO shelves (id, network_id, location_id, name, order_index) VALUES (?, ?, ?, ?, ?)`),
		sh.ShelfID, sh.NetworkID, sh.LocationID, sh.Name, sh.OrderIndex)
	if err != nil {
		return inventory.ShelfConfig{}, wrapWrite("create shelf", err)
	}
	db.changed(Change{Kind: KindShelves, NetworkID: sh.NetworkID, LocationID: sh.LocationID})
	return sh, nil
}

func (db *DB) GetShelf(ctx context.Context, networkID, locationID, shelfID string) (inventory.ShelfConfig, error) {
	var sh inventory.ShelfConfig
	err := db.QueryRowContext(ctx, db.Q(`SELECT id, network_id, location_id, name, order_index FROM shelves
		WHERE network_id = ? AND location_id = ? AND id = ?`), networkID, locationID, shelfID).
		Scan(&sh.ShelfID, &sh.NetworkID, &sh.LocationID, &sh.Name, &sh.OrderIndex)
	if err != nil {
		return inventory.ShelfConfig{}, notFound("get shelf", err)
	}
	return sh, nil
}

// ListShelves returns a location's shelves ordered by OrderIndex.
func (db *DB) ListShelves(ctx context.Context, networkID, locationID string) ([]inventory.ShelfConfig, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT id, network_id, location_id, name, order_index FROM shelves
		WHERE network_id = ? AND location_id = ? ORDER BY order_index, id`), networkID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	defer rows.Close()

	out := []inventory.ShelfConfig{}
	for rows.Next() {
		var sh inventory.ShelfConfig
		if err := rows.Scan(&sh.ShelfID, &sh.NetworkID, &sh.LocationID, &sh.Name, &sh.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan shelf: %w", err)
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (db *DB) UpdateShelf(ctx context.Context, sh inventory.ShelfConfig) error {
	res, err := db.ExecContext(ctx, db.Q(`UPDATE shelves SET name = ?, order_index = ? WHERE network_id = ? AND location_id = ? AND id = ?`),
		sh.Name, sh.OrderIndex, sh.NetworkID, sh.LocationID, sh.ShelfID)
	if err != nil {
		return wrapWrite("update shelf", err)
	}
	if err := expectRow("update shelf", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindShelves, NetworkID: sh.NetworkID, LocationID: sh.LocationID})
	return nil
}

func (db *DB) DeleteShelf(ctx context.Context, networkID, locationID, shelfID string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM shelves WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, shelfID)
	if err != nil {
		return fmt.Errorf("delete shelf: %w", err)
	}
	if err := expectRow("delete shelf", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindShelves, NetworkID: networkID, LocationID: locationID})
	return nil
}

const slotColumns = `id, network_id, location_id, shelf_id, name, node_id, sku_id, tare_g, calibration_factor, hysteresis_g, min_qty_step, status`

type scanner interface {
	Scan(dest ...any) error
}

func scanSlot(s scanner) (inventory.SlotConfig, error) {
	var c inventory.SlotConfig
	var status string
	err := s.Scan(&c.SlotID, &c.NetworkID, &c.LocationID, &c.ShelfID, &c.Name, &c.NodeID, &c.SkuID,
		&c.TareG, &c.CalibrationFactor, &c.HysteresisG, &c.MinQtyStep, &status)
	c.Status = inventory.Lifecycle(status)
	return c, err
}

// CreateSlot inserts a slot under a shelf with a generated ID. Unset
// lifecycle and step take their defaults.
func (db *DB) CreateSlot(ctx context.Context, c inventory.SlotConfig) (inventory.SlotConfig, error) {
	c = c.WithDefaults()
	if !c.Status.Valid() {
		return inventory.SlotConfig{}, fmt.Errorf("create slot: %w: status %q", ErrInvalid, c.Status)
	}
	c.SlotID = newID()
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO slots (`+slotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.SlotID, c.NetworkID, c.LocationID, c.ShelfID, c.Name, c.NodeID, c.SkuID,
		c.TareG, c.CalibrationFactor, c.HysteresisG, c.MinQtyStep, string(c.Status))
	if err != nil {
		return inventory.SlotConfig{}, wrapWrite("create slot", err)
	}
	db.changed(Change{Kind: KindSlots, NetworkID: c.NetworkID, LocationID: c.LocationID})
	return c, nil
}

func (db *DB) GetSlot(ctx context.Context, networkID, locationID, slotID string) (inventory.SlotConfig, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT `+slotColumns+` FROM slots WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, slotID)
	c, err := scanSlot(row)
	if err != nil {
		return inventory.SlotConfig{}, notFound("get slot", err)
	}
	return c, nil
}

// ListSlots returns every slot of a location keyed by slot ID, whatever
// its lifecycle.
func (db *DB) ListSlots(ctx context.Context, networkID, locationID string) (map[string]inventory.SlotConfig, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT `+slotColumns+` FROM slots WHERE network_id = ? AND location_id = ?`),
		networkID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	out := map[string]inventory.SlotConfig{}
	for rows.Next() {
		c, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out[c.SlotID] = c
	}
	return out, rows.Err()
}

func (db *DB) UpdateSlot(ctx context.Context, c inventory.SlotConfig) error {
	c = c.WithDefaults()
	if !c.Status.Valid() {
		return fmt.Errorf("update slot: %w: status %q", ErrInvalid, c.Status)
	}
	res, err := db.ExecContext(ctx, db.Q(`UPDATE slots SET shelf_id = ?, name = ?, node_id = ?, sku_id = ?, tare_g = ?,
		calibration_factor = ?, hysteresis_g = ?, min_qty_step = ?, status = ?
		WHERE network_id = ? AND location_id = ? AND id = ?`),
		c.ShelfID, c.Name, c.NodeID, c.SkuID, c.TareG, c.CalibrationFactor, c.HysteresisG, c.MinQtyStep, string(c.Status),
		c.NetworkID, c.LocationID, c.SlotID)
	if err != nil {
		return wrapWrite("update slot", err)
	}
	if err := expectRow("update slot", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindSlots, NetworkID: c.NetworkID, LocationID: c.LocationID})
	return nil
}

func (db *DB) DeleteSlot(ctx context.Context, networkID, locationID, slotID string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM slots WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, slotID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if err := expectRow("delete slot", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindSlots, NetworkID: networkID, LocationID: locationID})
	return nil
}

const skuColumns = `id, network_id, location_id, name, unit_weight_g, tolerance_g, packaging_weight_g, active`

func scanSku(s scanner) (inventory.SkuConfig, string, string, error) {
	var k inventory.SkuConfig
	var networkID, locationID string
	err := s.Scan(&k.SkuID, &networkID, &locationID, &k.Name, &k.UnitWeightG, &k.ToleranceG, &k.PackagingWeightG, &k.Active)
	return k, networkID, locationID, err
}

// CreateSku inserts a SKU with a generated ID.
func (db *DB) CreateSku(ctx context.Context, networkID, locationID string, k inventory.SkuConfig) (inventory.SkuConfig, error) {
	k.SkuID = newID()
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO skus (`+skuColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		k.SkuID, networkID, locationID, k.Name, k.UnitWeightG, k.ToleranceG, k.PackagingWeightG, k.Active)
	if err != nil {
		return inventory.SkuConfig{}, wrapWrite("create sku", err)
	}
	db.changed(Change{Kind: KindSkus, NetworkID: networkID, LocationID: locationID})
	return k, nil
}

func (db *DB) GetSku(ctx context.Context, networkID, locationID, skuID string) (inventory.SkuConfig, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT `+skuColumns+` FROM skus WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, skuID)
	k, _, _, err := scanSku(row)
	if err != nil {
		return inventory.SkuConfig{}, notFound("get sku", err)
	}
	return k, nil
}

// ListSkus returns a location's SKUs keyed by SKU ID.
func (db *DB) ListSkus(ctx context.Context, networkID, locationID string) (map[string]inventory.SkuConfig, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT `+skuColumns+` FROM skus WHERE network_id = ? AND location_id = ?`),
		networkID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list skus: %w", err)
	}
	defer rows.Close()

	out := map[string]inventory.SkuConfig{}
	for rows.Next() {
		k, _, _, err := scanSku(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sku: %w", err)
		}
		out[k.SkuID] = k
	}
	return out, rows.Err()
}

func (db *DB) UpdateSku(ctx context.Context, networkID, locationID string, k inventory.SkuConfig) error {
	res, err := db.ExecContext(ctx, db.Q(`UPDATE skus SET name = ?, unit_weight_g = ?, tolerance_g = ?, packaging_weight_g = ?, active = ?
		WHERE network_id = ? AND location_id = ? AND id = ?`),
		k.Name, k.UnitWeightG, k.ToleranceG, k.PackagingWeightG, k.Active, networkID, locationID, k.SkuID)
	if err != nil {
		return wrapWrite("update sku", err)
	}
	if err := expectRow("update sku", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindSkus, NetworkID: networkID, LocationID: locationID})
	return nil
}

func (db *DB) DeleteSku(ctx context.Context, networkID, locationID, skuID string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM skus WHERE network_id = ? AND location_id = ? AND id = ?`),
		networkID, locationID, skuID)
	if err != nil {
		return fmt.Errorf("delete sku: %w", err)
	}
	if err := expectRow("delete sku", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindSkus, NetworkID: networkID, LocationID: locationID})
	return nil
}
