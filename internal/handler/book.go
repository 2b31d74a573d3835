package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/validation"
)

type BookService interface {
	CreateBook(ctx context.Context, in validation.CreateBook) (*model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	SearchBooks(ctx context.Context, query string) ([]model.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in validation.UpdateBook) (*model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
}

type BookHandler struct {
	svc BookService
}

func NewBookHandler(svc BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

func (h *BookHandler) RegisterRoutes(r *gin.RouterGroup) {
	books := r.Group("/books")
	{
		books.GET("", h.ListBooks)
		books.GET("/:id", h.GetBookByID)
		books.PUT("/:id", h.UpdateBook)
		books.PATCH("/:id", h.UpdateBook)
		books.DELETE("/:id", h.DeleteBook)
		books.POST("", h.CreateBook)
	}
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Create a new book. The ISBN must be a valid ISBN-10 or ISBN-13 not used by any other book.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        payload  body      validation.CreateBook      true  "Book to create"
// @Success      201      {object}  model.Book
// @Failure      400      {object}  validation.ErrorResponse   "Validation error or duplicate ISBN"
// @Failure      500      {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req validation.CreateBook
	if !validation.BindJSON(c, &req) {
		return
	}

	book, err := h.svc.CreateBook(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, book)
}

// ListBooks godoc
// @Summary      List or search books
// @Description  Get all books, or the books matching query ranked best match first
// @Tags         books
// @Produce      json
// @Param        query  query     string  false  "Fuzzy search over title, author, genre and ISBN"
// @Success      200    {array}   model.Book
// @Failure      500    {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	books, err := h.svc.SearchBooks(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, books)
}

// GetBookByID godoc
// @Summary      Get a book by ID
// @Description  Get a single book by its UUID
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "Book ID (UUID)"
// @Success      200  {object}  model.Book
// @Failure      400  {object}  validation.ErrorResponse   "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse   "Book not found"
// @Failure      500  {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books/{id} [get]
func (h *BookHandler) GetBookByID(c *gin.Context) {
	bookID, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.svc.GetBook(c.Request.Context(), bookID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Partially update a book by its UUID; omitted fields keep their values
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Book ID (UUID)"
// @Param        payload  body      validation.UpdateBook  true  "Fields to update"
// @Success      200      {object}  model.Book
// @Failure      400      {object}  validation.ErrorResponse   "Invalid ID, payload or duplicate ISBN"
// @Failure      404      {object}  validation.ErrorResponse   "Book not found"
// @Failure      500      {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books/{id} [put]
// @Router       /books/{id} [patch]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	bookID, ok := parseBookID(c)
	if !ok {
		return
	}

	var req validation.UpdateBook
	if !validation.BindJSON(c, &req) {
		return
	}

	book, err := h.svc.UpdateBook(c.Request.Context(), bookID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary      Delete a book
// @Description  Delete a book by its UUID and return the deleted record
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "Book ID (UUID)"
// @Success      200  {object}  model.Book
// @Failure      400  {object}  validation.ErrorResponse   "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse   "Book not found"
// @Failure      500  {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	bookID, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.svc.DeleteBook(c.Request.Context(), bookID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

func parseBookID(c *gin.Context) (uuid.UUID, bool) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest,
			"INVALID_BOOK_ID",
			"invalid book id",
		)
		return uuid.Nil, false
	}
	return bookID, true
}
