package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CourierOption is one courier that can deliver to a pincode
type CourierOption struct {
	Code          string `json:"courier_code"`
	Name          string `json:"courier_name"`
	Cost          int64  `json:"cost"`
	EstimatedDays string `json:"estimated_delivery_days,omitempty"`
	ETD           string `json:"etd,omitempty"`
}

// RateQuery asks for couriers serving a delivery pincode
type RateQuery struct {
	DeliveryPincode string
	Weight          float64
	COD             bool
}

// FulfillmentItem is a line of a shipment order
type FulfillmentItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Units        int    `json:"units"`
	SellingPrice int64  `json:"selling_price"`
	Discount     int64  `json:"discount"`
	Tax          int64  `json:"tax"`
}

// FulfillmentOrder is the shipment order sent for cash-on-delivery orders
type FulfillmentOrder struct {
	OrderDBID           int64             `json:"order_db_id"`
	OrderID             string            `json:"order_id"`
	OrderDate           string            `json:"order_date"`
	PickupLocation      string            `json:"pickup_location"`
	ChannelID           string            `json:"channel_id"`
	Comment             string            `json:"comment"`
	BillingCustomerName string            `json:"billing_customer_name"`
	BillingLastName     string            `json:"billing_last_name"`
	BillingAddress      string            `json:"billing_address"`
	BillingAddress2     string            `json:"billing_address_2"`
	BillingCity         string            `json:"billing_city"`
	BillingPincode      string            `json:"billing_pincode"`
	BillingState        string            `json:"billing_state"`
	BillingCountry      string            `json:"billing_country"`
	BillingEmail        string            `json:"billing_email"`
	BillingPhone        string            `json:"billing_phone"`
	ShippingIsBilling   bool              `json:"shipping_is_billing"`
	PaymentMethod       string            `json:"payment_method"`
	ShippingCharges     int64             `json:"shipping_charges"`
	TotalDiscount       int64             `json:"total_discount"`
	SubTotal            int64             `json:"sub_total"`
	Length              float64           `json:"length"`
	Breadth             float64           `json:"breadth"`
	Height              float64           `json:"height"`
	Weight              float64           `json:"weight"`
	OrderItems          []FulfillmentItem `json:"order_items"`
}

// FulfillmentResult is Shiprocket's acknowledgement of a shipment order
type FulfillmentResult struct {
	OrderID    int64  `json:"order_id"`
	ShipmentID int64  `json:"shipment_id"`
	Status     string `json:"status"`
}

// Client is a Shiprocket API client
type Client struct {
	baseURL       string
	token         string
	pickupPincode string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient creates a Shiprocket client
func NewClient(baseURL, token, pickupPincode string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		pickupPincode: pickupPincode,
		httpClient:    httpClient,
		logger:        util.ComponentLogger("shiprocket"),
	}
}

type serviceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []struct {
			CourierCompanyID      int     `json:"courier_company_id"`
			CourierName           string  `json:"courier_name"`
			Rate                  float64 `json:"rate"`
			ETD                   string  `json:"etd"`
			EstimatedDeliveryDays string  `json:"estimated_delivery_days"`
		} `json:"available_courier_companies"`
	} `json:"data"`
	Message string `json:"message"`
}

// Rates returns couriers serving the delivery pincode. Costs are rounded up
// to whole rupees.
func (c *Client) Rates(ctx context.Context, q RateQuery) ([]CourierOption, error) {
	ctx, span := util.StartSpan(ctx, "Shiprocket.Rates")
	defer span.End()

	params := url.Values{}
	params.Set("pickup_postcode", c.pickupPincode)
	params.Set("delivery_postcode", q.DeliveryPincode)
	params.Set("weight", strconv.FormatFloat(q.Weight, 'f', -1, 64))
	if q.COD {
		params.Set("cod", "1")
	} else {
		params.Set("cod", "0")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/courier/serviceability/?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("shipping rate request failed: %w", err))
	}
	defer resp.Body.Close()

	var body serviceabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to decode shipping rates: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, util.FailSpan(span, fmt.Errorf("shipping rate request returned status %d: %s", resp.StatusCode, body.Message))
	}

	options := make([]CourierOption, 0, len(body.Data.AvailableCourierCompanies))
	for _, cc := range body.Data.AvailableCourierCompanies {
		options = append(options, CourierOption{
			Code:          strconv.Itoa(cc.CourierCompanyID),
			Name:          cc.CourierName,
			Cost:          decimal.NewFromFloat(cc.Rate).Ceil().IntPart(),
			EstimatedDays: cc.EstimatedDeliveryDays,
			ETD:           cc.ETD,
		})
	}

	c.logger.Debug("Shipping rates resolved",
		zap.String("pincode", q.DeliveryPincode),
		zap.Int("couriers", len(options)))
	return options, nil
}

// CreateOrder submits a shipment order
func (c *Client) CreateOrder(ctx context.Context, order FulfillmentOrder) (*FulfillmentResult, error) {
	ctx, span := util.StartSpan(ctx, "Shiprocket.CreateOrder")
	defer span.End()

	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fulfillment order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders/create/adhoc", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("fulfillment request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, util.FailSpan(span, fmt.Errorf("fulfillment request returned status %d", resp.StatusCode))
	}

	var result FulfillmentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to decode fulfillment response: %w", err))
	}
	return &result, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
