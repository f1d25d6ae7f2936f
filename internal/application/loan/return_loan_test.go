package loan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/loan"
)

// checkedOut 借出一本书,返回借阅ID
func checkedOut(t *testing.T, f *fixture, actor loan.Actor, bookID uint) uint {
	t.Helper()
	f.carts.seed(actor.UserID, bookID)
	resp, err := f.checkout.Execute(context.Background(), actor, validReceiver())
	require.NoError(t, err)
	require.Equal(t, 1, resp.Created)
	return resp.Loans[0].ID
}

func TestReturnIgnoresInvalidRating(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	loanID := checkedOut(t, f, alice, 1)

	resp, err := f.returns.Execute(context.Background(), alice, ReturnRequest{
		LoanID:         loanID,
		Report:         "  tapa dañada  ",
		BookRating:     "4",
		ReceiverRating: "abc",
	})
	require.NoError(t, err)

	l := f.db.committedLoan(loanID)
	assert.Equal(t, loan.StatusReturned, l.Status)
	require.NotNil(t, l.ReturnedAt)
	require.NotNil(t, l.BookRating)
	assert.Equal(t, 4, *l.BookRating)
	assert.Nil(t, l.ReceiverRating)
	assert.Equal(t, "tapa dañada", l.ReturnReport)

	assert.Equal(t, 1, resp.Available)
	assert.Equal(t, 0, resp.OnLoan)
	assert.Equal(t, 1, resp.Total)
	assert.NotEmpty(t, resp.ReturnedAt)

	evts := f.events.published()
	require.Len(t, evts, 2)
	assert.Equal(t, loan.EventReturned, evts[1].Type)
}

func TestReturnRequiresHolderOrStaff(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 2, true)
	loanID := checkedOut(t, f, alice, 1)
	ctx := context.Background()

	_, err := f.returns.Execute(ctx, bob, ReturnRequest{LoanID: loanID})
	assert.ErrorIs(t, err, loan.ErrNotAllowedToReturn)
	assert.Equal(t, loan.StatusActive, f.db.committedLoan(loanID).Status)

	_, err = f.returns.Execute(ctx, staff, ReturnRequest{LoanID: loanID})
	require.NoError(t, err)
	assert.Equal(t, loan.StatusReturned, f.db.committedLoan(loanID).Status)
}

func TestReturnTwiceIsRejected(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	loanID := checkedOut(t, f, alice, 1)
	ctx := context.Background()

	_, err := f.returns.Execute(ctx, alice, ReturnRequest{LoanID: loanID, Report: "ok", ReceiverRating: "5"})
	require.NoError(t, err)
	first := f.db.committedLoan(loanID)

	_, err = f.returns.Execute(ctx, alice, ReturnRequest{LoanID: loanID, Report: "otra vez", BookRating: "1"})
	assert.ErrorIs(t, err, loan.ErrLoanAlreadyReturned)

	second := f.db.committedLoan(loanID)
	assert.Equal(t, loan.StatusReturned, second.Status)
	assert.Equal(t, "ok", second.ReturnReport)
	assert.Equal(t, first.ReturnedAt, second.ReturnedAt)
	assert.Nil(t, second.BookRating)
}

func TestReturnUnknownLoan(t *testing.T) {
	f := newFixture()
	_, err := f.returns.Execute(context.Background(), staff, ReturnRequest{LoanID: 42})
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
}

func TestReturnSucceedsWhenPublishFails(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	loanID := checkedOut(t, f, alice, 1)
	f.events.err = errors.New("broker down")

	_, err := f.returns.Execute(context.Background(), alice, ReturnRequest{LoanID: loanID})
	require.NoError(t, err)
	assert.Equal(t, loan.StatusReturned, f.db.committedLoan(loanID).Status)
}
