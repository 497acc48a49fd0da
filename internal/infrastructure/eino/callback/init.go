package callback

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"

	"novel-copilot-api/internal/domain/service"
)

var registerOnce sync.Once

// Init 把续写模型回调挂到 eino 全局处理器上，重复调用只生效一次。
// api-gateway 与 job-worker 启动时各自调用，recorder 为 nil 时只上报指标与 span。
func Init(recorder service.LLMUsageRecorder) {
	registerOnce.Do(func() {
		einocallbacks.AppendGlobalHandlers(
			cbtemplate.NewHandlerHelper().
				ChatModel(newChatModelCallbackHandler(recorder)).
				Handler(),
		)
	})
}
