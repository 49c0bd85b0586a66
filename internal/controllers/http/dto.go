package http

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AdjustQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type DeleteOrdersResponse struct {
	Deleted   int64    `json:"deleted"`
	Customers []string `json:"customers"`
}
