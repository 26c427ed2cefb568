package grocery_test

import (
	"context"
	"errors"
	"testing"

	"souschef/internal/core/grocery"
	"souschef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	configured bool
	err        error
	phone      string
	text       string
}

func (s *fakeSender) Configured() bool { return s.configured }

func (s *fakeSender) Send(ctx context.Context, phone, text string) error {
	s.phone = phone
	s.text = text
	return s.err
}

func TestFormatList(t *testing.T) {
	got := grocery.FormatList(grocery.ShareList{
		ListName: "Weekend",
		Items: []grocery.ShareItem{
			{Name: "flour", Quantity: "2", Unit: unit("cups")},
			{Name: "eggs", Quantity: "3", Completed: true},
			{Name: "SALT"},
		},
	})
	assert.Equal(t, "🛒 *Weekend*\n\n*Items to buy:*\n• Flour - 2 cups\n• Salt\n", got)

	done := grocery.FormatList(grocery.ShareList{
		ListName: "Done",
		Items:    []grocery.ShareItem{{Name: "milk", Completed: true}},
	})
	assert.Equal(t, "🛒 *Done*\n\nAll items completed! ✅\n", done)
}

func TestFormatLists(t *testing.T) {
	got := grocery.FormatLists([]grocery.ShareList{
		{ListName: "A", Items: []grocery.ShareItem{{Name: "apples", Quantity: "4"}}},
		{ListName: "B", Items: []grocery.ShareItem{{Name: "bread", Completed: true}}},
	})
	assert.Equal(t, "🛒 *Your Grocery Lists*\n\n*A*\nItems to buy:\n• Apples - 4\n\n*B*\n\n", got)
}

func TestShareListNotConfigured(t *testing.T) {
	f := newFixture()
	share := grocery.NewShareService(f.lists, &fakeSender{}, "+15550001111")

	err := share.ShareList(context.Background(), nil, "", grocery.ShareList{
		ListName: "A",
		Items:    []grocery.ShareItem{{Name: "apples"}},
	})
	assert.ErrorIs(t, err, common.ErrShareNotConfigured)

	share = grocery.NewShareService(f.lists, nil, "")
	err = share.ShareList(context.Background(), nil, "", grocery.ShareList{Items: []grocery.ShareItem{}})
	assert.ErrorIs(t, err, common.ErrShareNotConfigured)
}

func TestShareListPhone(t *testing.T) {
	f := newFixture()
	sender := &fakeSender{configured: true}
	l := grocery.ShareList{ListName: "A", Items: []grocery.ShareItem{{Name: "apples"}}}

	share := grocery.NewShareService(f.lists, sender, "")
	err := share.ShareList(context.Background(), nil, "", l)
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))

	share = grocery.NewShareService(f.lists, sender, "+15550001111")
	require.NoError(t, share.ShareList(context.Background(), nil, "", l))
	assert.Equal(t, "+15550001111", sender.phone)

	require.NoError(t, share.ShareList(context.Background(), nil, "+15559998888", l))
	assert.Equal(t, "+15559998888", sender.phone)
}

func TestShareListLoadsStoredItems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	l, err := f.lists.CreateList(ctx, nil, "Party")
	require.NoError(t, err)
	_, err = f.lists.AddItem(ctx, nil, l.ID, grocery.ItemInput{Name: "chips", Quantity: "2", Unit: unit("bags")})
	require.NoError(t, err)

	sender := &fakeSender{configured: true}
	share := grocery.NewShareService(f.lists, sender, "+15550001111")
	require.NoError(t, share.ShareList(ctx, nil, "", grocery.ShareList{ListID: l.ID}))
	assert.Equal(t, "🛒 *Party*\n\n*Items to buy:*\n• Chips - 2 bags\n", sender.text)

	// 其他擁有者看不到這個清單
	owner := common.GenerateUUID()
	err = share.ShareList(ctx, &owner, "", grocery.ShareList{ListID: l.ID})
	assert.ErrorIs(t, err, common.ErrListNotFound)

	err = share.ShareList(ctx, nil, "", grocery.ShareList{})
	assert.True(t, common.IsValidationError(err))
}

func TestShareListsSendFailure(t *testing.T) {
	f := newFixture()
	sender := &fakeSender{configured: true, err: errors.New("gateway down")}
	share := grocery.NewShareService(f.lists, sender, "+15550001111")

	err := share.ShareLists(context.Background(), nil, "", []grocery.ShareList{
		{ListName: "A", Items: []grocery.ShareItem{{Name: "apples"}}},
	})
	assert.ErrorIs(t, err, common.ErrShareFailed)

	err = share.ShareLists(context.Background(), nil, "", nil)
	assert.True(t, common.IsValidationError(err))
}
