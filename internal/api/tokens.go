package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tonkeeper/tongo/ton"
)

type tokenResponse struct {
	Master      string `json:"master"`
	Symbol      string `json:"symbol"`
	Decimals    int32  `json:"decimals"`
	TotalSupply Amount `json:"totalSupply"`
}

func (h *Handler) ListTokens(c *gin.Context) {
	jettons := h.tokens.Jettons()
	tokens := make([]tokenResponse, 0, len(jettons))
	for _, jetton := range jettons {
		tokens = append(tokens, tokenResponse{
			Master:      jetton.Master.ToRaw(),
			Symbol:      jetton.Symbol,
			Decimals:    jetton.Decimals,
			TotalSupply: h.amount(jetton.Master, jetton.TotalSupply()),
		})
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func accountParam(c *gin.Context, name string) (ton.AccountID, bool) {
	accountID, err := ton.ParseAccountID(c.Param(name))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid "+name)
		return ton.AccountID{}, false
	}
	return accountID, true
}

func (h *Handler) GetBalance(c *gin.Context) {
	master, ok := accountParam(c, "master")
	if !ok {
		return
	}
	holder, ok := accountParam(c, "holder")
	if !ok {
		return
	}
	jetton, err := h.tokens.Jetton(master)
	if err != nil {
		fail(c, err)
		return
	}

	custody := h.registry.Custody()
	c.JSON(http.StatusOK, gin.H{
		"master":    master.ToRaw(),
		"holder":    holder.ToRaw(),
		"balance":   h.amount(master, jetton.BalanceOf(holder)),
		"allowance": h.amount(master, jetton.Allowance(holder, custody)),
	})
}

type approveRequest struct {
	// Spender defaults to the registry custody account.
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

// Approve sets the caller's allowance for a spender, replacing any
// previous value.
func (h *Handler) Approve(c *gin.Context) {
	master, ok := accountParam(c, "master")
	if !ok {
		return
	}
	var request approveRequest
	if !bind(c, &request) {
		return
	}

	spender := h.registry.Custody()
	if request.Spender != "" {
		var err error
		if spender, err = ton.ParseAccountID(request.Spender); err != nil {
			abort(c, http.StatusBadRequest, "invalid spender")
			return
		}
	}

	jetton, err := h.tokens.Jetton(master)
	if err != nil {
		fail(c, err)
		return
	}
	jetton.Approve(caller(c), spender, request.Amount)
	c.Status(http.StatusNoContent)
}
