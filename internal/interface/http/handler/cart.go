package handler

import (
	"github.com/gin-gonic/gin"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// CartHandler 待借清单与借出HTTP处理器
type CartHandler struct {
	cartUseCase     *apploan.CartUseCase
	checkoutUseCase *apploan.CheckoutUseCase
}

// NewCartHandler 创建待借清单处理器
func NewCartHandler(cartUseCase *apploan.CartUseCase, checkoutUseCase *apploan.CheckoutUseCase) *CartHandler {
	return &CartHandler{
		cartUseCase:     cartUseCase,
		checkoutUseCase: checkoutUseCase,
	}
}

// List 查看待借清单
// @Summary      查看待借清单
// @Description  按加入顺序返回清单中的图书及当前可借情况
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=apploan.CartView}
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/cart [get]
func (h *CartHandler) List(c *gin.Context) {
	view, err := h.cartUseCase.List(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Add 加入待借清单
// @Summary      加入待借清单
// @Description  图书必须在架且有可借副本；无可借副本时data中返回可借情况
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        book_id path int true "图书ID"
// @Success      200 {object} response.Response{data=apploan.CartView}
// @Failure      400 {object} response.Response "图书已停用"
// @Failure      404 {object} response.Response "图书不存在"
// @Failure      409 {object} response.Response{data=apploan.Availability} "无可借副本"
// @Router       /api/v1/cart/{book_id} [post]
func (h *CartHandler) Add(c *gin.Context) {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return
	}

	view, err := h.cartUseCase.Add(c.Request.Context(), middleware.CurrentActor(c), bookID)
	if err != nil {
		// 无可借副本时带上可借情况，前端据此提示
		if nse, ok := apploan.IsNoStock(err); ok {
			noStock(c, nse)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Remove 移出待借清单
// @Summary      移出待借清单
// @Description  不在清单中的图书直接返回当前清单
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        book_id path int true "图书ID"
// @Success      200 {object} response.Response{data=apploan.CartView}
// @Router       /api/v1/cart/{book_id} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return
	}

	view, err := h.cartUseCase.Remove(c.Request.Context(), middleware.CurrentActor(c), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Clear 清空待借清单
// @Summary      清空待借清单
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/v1/cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartUseCase.Clear(c.Request.Context(), middleware.CurrentActor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Checkout 借出清单中的图书
// @Summary      借出
// @Description  为借书人借出清单中的全部图书；单本无可借副本不影响其他图书，失败的图书留在清单中
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CheckoutRequest true "借书人信息"
// @Success      200 {object} response.Response{data=apploan.CheckoutResponse}
// @Failure      400 {object} response.Response{data=map[string]string} "借书人信息不合法或清单为空"
// @Router       /api/v1/cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.checkoutUseCase.Execute(c.Request.Context(), middleware.CurrentActor(c), apploan.CheckoutRequest{
		ReceiverCedula:    req.ReceiverCedula,
		ReceiverFirstName: req.ReceiverFirstName,
		ReceiverLastName:  req.ReceiverLastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func noStock(c *gin.Context, nse *apploan.NoStockError) {
	app := apperrors.GetAppError(nse)
	response.ErrorWithData(c, app.Code, nse.Error(), nse.Availability)
}
