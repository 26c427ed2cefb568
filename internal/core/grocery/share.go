package grocery

import (
	"context"
	"strings"

	"souschef/internal/pkg/common"

	"go.uber.org/zap"
)

// Sender 訊息閘道
type Sender interface {
	Send(ctx context.Context, phone, text string) error
	Configured() bool
}

// ShareItem 分享用的項目
type ShareItem struct {
	Name      string  `json:"name" binding:"required"`
	Quantity  string  `json:"quantity"`
	Unit      *string `json:"unit"`
	Completed bool    `json:"completed"`
}

// ShareList 分享用的清單；Items 為 nil 時從資料庫載入
type ShareList struct {
	ListID   string      `json:"listId"`
	ListName string      `json:"listName"`
	Items    []ShareItem `json:"items" binding:"omitempty,dive"`
}

// FormatList 產生單一清單的分享訊息，只列出未完成項目
func FormatList(l ShareList) string {
	var b strings.Builder
	b.WriteString("🛒 *" + l.ListName + "*\n\n")

	pending := pendingItems(l.Items)
	if len(pending) == 0 {
		b.WriteString("All items completed! ✅\n")
		return b.String()
	}
	b.WriteString("*Items to buy:*\n")
	for _, item := range pending {
		b.WriteString(formatItem(item))
	}
	return b.String()
}

// FormatLists 產生多個清單的分享訊息
func FormatLists(lists []ShareList) string {
	var b strings.Builder
	b.WriteString("🛒 *Your Grocery Lists*\n\n")
	for _, l := range lists {
		b.WriteString("*" + l.ListName + "*\n")
		if pending := pendingItems(l.Items); len(pending) > 0 {
			b.WriteString("Items to buy:\n")
			for _, item := range pending {
				b.WriteString(formatItem(item))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pendingItems(items []ShareItem) []ShareItem {
	pending := make([]ShareItem, 0, len(items))
	for _, item := range items {
		if !item.Completed {
			pending = append(pending, item)
		}
	}
	return pending
}

func formatItem(item ShareItem) string {
	line := "• " + common.Capitalize(strings.TrimSpace(item.Name))
	if q := strings.TrimSpace(item.Quantity); q != "" {
		line += " - " + q
	}
	if u := strings.TrimSpace(common.Deref(item.Unit)); u != "" {
		line += " " + u
	}
	return line + "\n"
}

// ShareService 透過訊息閘道分享清單
type ShareService struct {
	lists        *Service
	sender       Sender
	defaultPhone string
}

// NewShareService 創建新的分享服務
func NewShareService(lists *Service, sender Sender, defaultPhone string) *ShareService {
	return &ShareService{
		lists:        lists,
		sender:       sender,
		defaultPhone: defaultPhone,
	}
}

// ShareList 分享單一清單
func (s *ShareService) ShareList(ctx context.Context, ownerID *string, phone string, l ShareList) error {
	resolved, err := s.resolve(ctx, ownerID, l)
	if err != nil {
		return err
	}
	return s.send(ctx, phone, FormatList(resolved))
}

// ShareLists 分享多個清單
func (s *ShareService) ShareLists(ctx context.Context, ownerID *string, phone string, lists []ShareList) error {
	if len(lists) == 0 {
		return common.NewValidationError("lists", "At least one list is required")
	}
	resolved := make([]ShareList, 0, len(lists))
	for _, l := range lists {
		r, err := s.resolve(ctx, ownerID, l)
		if err != nil {
			return err
		}
		resolved = append(resolved, r)
	}
	return s.send(ctx, phone, FormatLists(resolved))
}

// resolve 未附項目時從資料庫載入清單
func (s *ShareService) resolve(ctx context.Context, ownerID *string, l ShareList) (ShareList, error) {
	if l.Items != nil {
		if strings.TrimSpace(l.ListName) == "" {
			l.ListName = "Grocery List"
		}
		return l, nil
	}
	if l.ListID == "" {
		return l, common.NewValidationError("listId", "listId or items is required")
	}

	stored, err := s.lists.GetList(ctx, ownerID, l.ListID)
	if err != nil {
		return l, err
	}
	if strings.TrimSpace(l.ListName) == "" {
		l.ListName = stored.Name
	}
	l.Items = make([]ShareItem, 0, len(stored.Items))
	for _, item := range stored.Items {
		l.Items = append(l.Items, ShareItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Unit:      item.Unit,
			Completed: item.Completed,
		})
	}
	return l, nil
}

func (s *ShareService) send(ctx context.Context, phone, text string) error {
	if s.sender == nil || !s.sender.Configured() {
		return common.ErrShareNotConfigured
	}
	if phone == "" {
		phone = s.defaultPhone
	}
	if phone == "" {
		return common.NewValidationError("phoneNumber", "Phone number is required")
	}

	if err := s.sender.Send(ctx, phone, text); err != nil {
		common.LogError("分享購物清單失敗", zap.Error(err))
		return common.ErrShareFailed.Wrap(err)
	}
	common.LogInfo("購物清單已分享", zap.Int("message_length", len(text)))
	return nil
}
