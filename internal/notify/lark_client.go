package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// LarkClient sends text messages through the Feishu/Lark IM API.
//
// A recipient is a chat id, or "<type>:<id>" where type is one of
// open_id, user_id, union_id, email, chat_id.
type LarkClient struct {
	cli *lark.Client
}

func NewLarkClient(appID, appSecret string, timeout time.Duration, opts ...lark.ClientOptionFunc) *LarkClient {
	base := []lark.ClientOptionFunc{
		lark.WithReqTimeout(timeout),
		lark.WithLogLevel(larkcore.LogLevelError),
	}
	return &LarkClient{cli: lark.NewClient(appID, appSecret, append(base, opts...)...)}
}

var larkReceiveIDTypes = map[string]string{
	"open_id":  larkim.ReceiveIdTypeOpenId,
	"user_id":  larkim.ReceiveIdTypeUserId,
	"union_id": larkim.ReceiveIdTypeUnionId,
	"email":    larkim.ReceiveIdTypeEmail,
	"chat_id":  larkim.ReceiveIdTypeChatId,
}

func parseLarkRecipient(recipient string) (idType, id string) {
	if prefix, rest, ok := strings.Cut(recipient, ":"); ok {
		if t, known := larkReceiveIDTypes[prefix]; known {
			return t, rest
		}
	}
	return larkim.ReceiveIdTypeChatId, recipient
}

func (c *LarkClient) Name() string { return "lark" }

func (c *LarkClient) Send(ctx context.Context, recipient, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	idType, id := parseLarkRecipient(recipient)
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(idType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(id).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := c.cli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if !resp.Success() {
		return fmt.Errorf("%w: lark code=%d msg=%s", ErrDelivery, resp.Code, resp.Msg)
	}
	return nil
}
