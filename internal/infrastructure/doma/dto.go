package doma

import "encoding/json"

// pollResponse - обертка ответа /v1/poll.
// События держим сырыми: одно битое событие не должно ронять весь батч.
type pollResponse struct {
	Events []json.RawMessage `json:"events"`
}

// eventDTO - верхний уровень события. eventData декодируем отдельно и
// лениво: битый payment-блок стоит нам только цены, не всего события.
type eventDTO struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	EventData json.RawMessage `json:"eventData"`
}

type eventData struct {
	Payment *paymentDTO `json:"payment"`
}

// paymentDTO - цена в fixed-point (integer, 6 знаков), делим на 10^6.
type paymentDTO struct {
	Price          json.Number `json:"price"`
	CurrencySymbol string      `json:"currencySymbol"`
}
