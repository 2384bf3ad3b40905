package service_test

import (
	"context"
	"testing"
	"time"

	"propshop/internal/model"
	"propshop/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDeliverySvc() (service.DeliveryService, *stubOrderRepo, *stubDeliveryRepo, *stubNotifier) {
	orderRepo := newStubOrderRepo()
	deliveryRepo := newStubDeliveryRepo(orderRepo)
	notifier := &stubNotifier{}
	svc := service.NewDeliveryService(deliveryRepo, orderRepo, notifier)
	return svc, orderRepo, deliveryRepo, notifier
}

func seedDeliveryOrder(orderRepo *stubOrderRepo, paid bool) *model.Order {
	loc := "12 High Street"
	o := &model.Order{
		ID:               uuid.New(),
		OrderNumber:      "ORD-2026-12345",
		ReceiverName:     "Jane Cole",
		ReceiverPhone:    "08012345678",
		Total:            decimal.NewFromInt(30),
		OrderDate:        time.Now(),
		FulfillmentType:  model.FulfillmentDelivery,
		DeliveryLocation: &loc,
		Paid:             paid,
	}
	orderRepo.orders[o.ID] = o
	return o
}

func TestDeliveryList_ProjectsOrderFields(t *testing.T) {
	svc, orderRepo, deliveryRepo, _ := buildDeliverySvc()
	o := seedDeliveryOrder(orderRepo, true)
	deliveryRepo.rows[o.ID] = &model.Delivery{
		ID: o.ID, OrderID: o.ID, Status: model.DeliveryPending, CreatedAt: time.Now(),
	}

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)

	d := out[0]
	assert.Equal(t, o.OrderNumber, d.OrderNumber)
	assert.Equal(t, "Jane Cole", d.ReceiverName)
	assert.Equal(t, "12 High Street", d.DeliveryLocation)
	assert.True(t, d.Paid, "paid is read from the order, never stored on the delivery")
	assert.Equal(t, model.DeliveryPending, d.Status)
}

func TestDeliveryList_PaidNeverDiverges(t *testing.T) {
	svc, orderRepo, deliveryRepo, _ := buildDeliverySvc()
	o := seedDeliveryOrder(orderRepo, false)
	deliveryRepo.rows[o.ID] = &model.Delivery{
		ID: o.ID, OrderID: o.ID, Status: model.DeliveryPending, CreatedAt: time.Now(),
	}

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.False(t, out[0].Paid)

	// Flip paid on the order only; the projection follows with no sync step.
	o.Paid = true
	out, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.True(t, out[0].Paid)
}

func TestReconcile_BackfillsMissingRows(t *testing.T) {
	svc, orderRepo, deliveryRepo, notifier := buildDeliverySvc()
	missing := seedDeliveryOrder(orderRepo, false)
	covered := seedDeliveryOrder(orderRepo, true)
	deliveryRepo.rows[covered.ID] = &model.Delivery{
		ID: covered.ID, OrderID: covered.ID, Status: model.DeliveryPending, CreatedAt: time.Now(),
	}
	// Pickup orders never get a row.
	pickup := &model.Order{
		ID: uuid.New(), OrderNumber: "ORD-2026-00001",
		FulfillmentType: model.FulfillmentPickup, OrderDate: time.Now(),
	}
	orderRepo.orders[pickup.ID] = pickup

	resp, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Created)

	d, ok := deliveryRepo.rows[missing.ID]
	require.True(t, ok)
	assert.Equal(t, model.DeliveryPending, d.Status)
	_, pickupHasRow := deliveryRepo.rows[pickup.ID]
	assert.False(t, pickupHasRow)
	assert.True(t, notifier.notified(service.CollectionDeliveries))
}

func TestReconcile_DeliveredOrderGetsDeliveredRow(t *testing.T) {
	svc, orderRepo, deliveryRepo, _ := buildDeliverySvc()
	o := seedDeliveryOrder(orderRepo, true)
	o.Delivered = true

	resp, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, model.DeliveryDelivered, deliveryRepo.rows[o.ID].Status)
}

func TestReconcile_NoopWhenComplete(t *testing.T) {
	svc, orderRepo, deliveryRepo, notifier := buildDeliverySvc()
	o := seedDeliveryOrder(orderRepo, true)
	deliveryRepo.rows[o.ID] = &model.Delivery{
		ID: o.ID, OrderID: o.ID, Status: model.DeliveryPending, CreatedAt: time.Now(),
	}

	resp, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Created)
	assert.False(t, notifier.notified(service.CollectionDeliveries))
}

func TestDeliveryGet_NotFound(t *testing.T) {
	svc, _, _, _ := buildDeliverySvc()
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
