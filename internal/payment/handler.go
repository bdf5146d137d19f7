package payment

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/tabng/tab-backend/internal/apperror"
	"go.uber.org/zap"
)

const (
	CallbackPath = "/api/v1/payments/paystack/callback"
	ClosePath    = "/api/v1/payments/paystack/close"
)

var payPage = template.Must(template.New("pay").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Tab.ng payment</title>
</head>
<body>
<p>Opening secure payment&hellip;</p>
<script>
(function () {
  function post(path, body) {
    return fetch(path, {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body)});
  }
  function open() {
    var handler = window.PaystackPop.setup({
      key: {{.Key}},
      email: {{.Email}},
      amount: {{.Amount}},
      ref: {{.Reference}},
      currency: {{.Currency}},
      metadata: {custom_fields: {{.Metadata}}},
      onSuccess: function (tx) { post({{.CallbackPath}}, tx); },
      onClose: function () { post({{.ClosePath}}, {reference: {{.Reference}}}); }
    });
    handler.openIframe();
  }
  var script = document.getElementById({{.ScriptID}});
  if (window.PaystackPop) { open(); } else { script.addEventListener("load", open); }
})();
</script>
</body>
</html>`))

type pageData struct {
	Key          string
	Email        string
	Amount       int64
	Reference    string
	Currency     string
	Metadata     []CustomField
	CallbackPath string
	ClosePath    string
	ScriptID     string
}

type Handler struct {
	gateway *Gateway
	log     *zap.Logger
}

func NewHandler(g *Gateway, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{gateway: g, log: log}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/pay/:reference", h.payPage)
	app.Post(CallbackPath, h.callback)
	app.Post(ClosePath, h.close)
}

// payPage renders the hosted payment page for an open session.
func (h *Handler) payPage(c *fiber.Ctx) error {
	s, ok := h.gateway.Session(c.Params("reference"))
	if !ok {
		return apperror.Respond(c, ErrUnknownSession)
	}
	var buf bytes.Buffer
	err := payPage.Execute(&buf, pageData{
		Key:          h.gateway.PublicKey(),
		Email:        s.Request.Email,
		Amount:       s.Request.Amount,
		Reference:    s.Reference,
		Currency:     s.Request.Currency,
		Metadata:     s.Request.Metadata,
		CallbackPath: CallbackPath,
		ClosePath:    ClosePath,
		ScriptID:     ScriptID,
	})
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(InjectScript(buf.String()))
}

// callback trusts the page's success report; there is no webhook signature
// check.
func (h *Handler) callback(c *fiber.Ctx) error {
	tx := new(Transaction)
	if err := c.BodyParser(tx); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if tx.Reference == "" {
		return apperror.Respond(c, apperror.Invalid(map[string]string{"reference": "Reference is required"}))
	}
	if err := h.gateway.Succeed(tx.Reference, *tx); err != nil {
		h.log.Warn("payment success callback rejected", zap.String("reference", tx.Reference), zap.Error(err))
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Payment received", "reference": tx.Reference})
}

func (h *Handler) close(c *fiber.Ctx) error {
	payload := struct {
		Reference string `json:"reference"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Reference == "" {
		return apperror.Respond(c, apperror.Invalid(map[string]string{"reference": "Reference is required"}))
	}
	if err := h.gateway.Close(payload.Reference); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Payment window closed", "reference": payload.Reference})
}
