package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"savebot/internal/logger"
	"savebot/internal/telegram/models"
	"savebot/internal/telegram/repository"
	"savebot/internal/telegram/transport"
)

// ErrTransferBusy 用户已有进行中的批次
var ErrTransferBusy = errors.New("transfer already in progress")

// ErrNotLoggedIn 用户没有可用的委托会话
var ErrNotLoggedIn = errors.New("user not logged in")

// Indexer 归档后的外部索引挂钩
// 引擎在批次里调用它上传媒体副本、触发待索引记录的处理。
type Indexer interface {
	// UploadFile 上传本地文件，返回外部文件引用
	UploadFile(ctx context.Context, path string) (string, error)

	// IndexPending 处理全部待索引记录
	IndexPending(ctx context.Context) error
}

// Options 引擎运行参数
type Options struct {
	FilesLogChatID    int64         // 归档频道 ID
	SleepTime         time.Duration // 链接之间的间隔
	ProgressThreshold int64         // 小于该字节数不显示进度面板
	DownloadDir       string        // 临时下载目录
}

// Deps 引擎依赖集合
type Deps struct {
	Bot        transport.BotClient
	Sessions   *transport.Sessions
	Registry   *Registry
	Transfers  repository.TransferRepository
	Messages   repository.MessageRepository
	Channels   repository.ChannelRepository
	Users      repository.UserRepository
	MediaTypes repository.MediaTypeRepository
	Indexer    Indexer // 可为 nil（未配置 Notion 时）
}

// BatchOptions 单个批次的运行选项
type BatchOptions struct {
	Origin            transport.Sent // 触发本批次的命令消息（恢复时定位用）
	IndexToNotion     bool           // 是否登记元数据并索引
	StopOnAccessError bool           // 聊天无法访问时终止剩余链接（批量范围模式）
}

// errChatInaccessible 批量范围模式下聊天不可访问，放弃剩余链接
var errChatInaccessible = errors.New("chat inaccessible")

// BatchResult 批次执行统计
// 四个计数互斥，相加等于 Processed。
type BatchResult struct {
	Processed   int
	Success     int
	Failed      int
	NotAllowed  int
	Skipped     int
	LastLink    string
	SessionLost bool
	Cancelled   bool
}

// Summary 渲染批次结果摘要
func (r *BatchResult) Summary() string {
	return fmt.Sprintf(
		"📊 <b>转存结束</b>\n\n"+
			"已处理: %d\n"+
			"✅ 成功: %d\n"+
			"❌ 失败: %d\n"+
			"🚫 类型不允许: %d\n"+
			"⏭ 已跳过: %d",
		r.Processed, r.Success, r.Failed, r.NotAllowed, r.Skipped,
	)
}

// Engine 转存流水线
//
// 每个批次持有一条任务记录，贯穿全部链接（包括链接间的休眠），
// 所以任意时刻进程退出都能从记录恢复。单条链接的流程：
// 解析 -> 解析聊天 -> 读消息 -> 类型过滤 -> 归档副本 -> 镜像分发。
type Engine struct {
	deps Deps
	opts Options

	invoker *transport.Invoker
	newID   func() int64
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewEngine 创建转存引擎
func NewEngine(deps Deps, opts Options) *Engine {
	if opts.DownloadDir == "" {
		opts.DownloadDir = os.TempDir()
	}
	return &Engine{
		deps:    deps,
		opts:    opts,
		invoker: transport.NewInvoker(),
		newID:   func() int64 { return rand.Int63() },
		sleep:   sleepContext,
	}
}

// RunBatch 执行一个转存批次
// 同一用户同时只能有一个批次，冲突时返回 ErrTransferBusy。
func (e *Engine) RunBatch(ctx context.Context, userID int64, links []string, opts BatchOptions) (*BatchResult, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("no links to process")
	}

	if !e.deps.Registry.Acquire(userID) {
		return nil, ErrTransferBusy
	}
	defer e.deps.Registry.Release(userID)

	client, err := e.userClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	taskID := uuid.NewString()
	log := logger.L().WithField("task", taskID)
	log.Infof("Starting transfer batch for user %d with %d links", userID, len(links))

	transferID := e.newID()
	record := &models.Transfer{
		ID:              transferID,
		UserID:          userID,
		Links:           links,
		LinkIndex:       0,
		Status:          models.TransferStatusInProgress,
		OriginChatID:    opts.Origin.ChatID,
		OriginMessageID: opts.Origin.MessageID,
		CreatedAt:       time.Now(),
	}
	e.deps.Registry.Add(record)
	if err := e.deps.Transfers.Create(ctx, record); err != nil {
		e.deps.Registry.Remove(transferID)
		return nil, fmt.Errorf("failed to persist transfer record: %w", err)
	}

	// 进程关闭时记录留在库里转为 sleeping，其余收尾路径都删除
	cleanup := func() {
		e.deps.Registry.Remove(transferID)
		if err := e.deps.Transfers.Delete(context.WithoutCancel(ctx), transferID); err != nil {
			log.Errorf("Failed to delete transfer record %d: %v", transferID, err)
		}
	}

	status, err := e.deps.Bot.SendMessage(ctx, userID,
		fmt.Sprintf("⏳ 开始处理 %d 个链接...", len(links)),
		&transport.SendOptions{ReplyMarkup: CancelMarkup(transferID)})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to send status message: %w", err)
	}
	defer func() {
		if err := e.deps.Bot.DeleteMessage(context.WithoutCancel(ctx), status.ChatID, status.MessageID); err != nil {
			log.Debugf("Failed to delete status message: %v", err)
		}
	}()

	result := &BatchResult{}
	for i, link := range links {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if e.deps.Registry.IsCancelled(transferID) {
			result.Cancelled = true
			break
		}

		if i > 0 {
			e.deps.Registry.SetLinkIndex(transferID, i)
			if err := e.deps.Transfers.UpdateLinkIndex(ctx, transferID, i); err != nil {
				log.Errorf("Failed to update link index: %v", err)
			}
		}

		result.Processed = i + 1
		result.LastLink = link

		err := e.processLink(ctx, client, transferID, userID, links, i, status, opts, result)
		aborted := false
		switch {
		case err == nil:
		case transport.IsCancelled(err):
			log.Info("Transfer cancelled by user")
			result.Cancelled = true
		case errors.Is(err, errChatInaccessible):
			log.Warn("Chat inaccessible, aborting remaining links")
			aborted = true
		case errors.Is(err, transport.ErrSessionInvalidated):
			log.Warn("Delegated session invalidated, aborting batch")
			result.SessionLost = true
			e.dropSession(ctx, userID, client)
		case ctx.Err() != nil:
			return result, ctx.Err()
		default:
			// processLink 自己消化了可计数的失败，到这里的是批次级错误
			cleanup()
			return result, err
		}
		if aborted || result.Cancelled || result.SessionLost {
			break
		}

		if i < len(links)-1 {
			if err := e.sleep(ctx, e.opts.SleepTime); err != nil {
				return result, err
			}
		}
	}

	cleanup()
	log.Infof("Transfer batch finished: %d processed, %d success, %d failed, %d not allowed, %d skipped",
		result.Processed, result.Success, result.Failed, result.NotAllowed, result.Skipped)
	return result, nil
}

// processLink 处理批次里的一个链接
// 可计数的失败（链接无效、无法访问、读取失败、分发失败）记入 result
// 并返回 nil；返回非 nil 错误的只有取消、会话失效和上下文取消。
func (e *Engine) processLink(ctx context.Context, client transport.UserClient, transferID, userID int64, links []string, index int, status transport.Sent, opts BatchOptions, result *BatchResult) error {
	link := links[index]

	parts := ParseLink(link)
	if parts == nil {
		result.Failed++
		e.notify(ctx, userID, fmt.Sprintf("❌ 链接无效: %s", link))
		return nil
	}

	chat, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (*transport.Chat, error) {
		return client.ResolveChat(ctx, parts.Chat)
	})
	if err != nil {
		if errors.Is(err, transport.ErrSessionInvalidated) || ctx.Err() != nil {
			return err
		}
		result.Failed++
		e.notify(ctx, userID, fmt.Sprintf("❌ 无法访问该聊天，请确认账号已加入: %s", link))
		if opts.StopOnAccessError {
			return errChatInaccessible
		}
		return nil
	}

	// 话题寻址的链接用话题段做抓取 ID
	fetchID := parts.MessageID
	if parts.TopicID != 0 {
		fetchID = parts.TopicID
	}

	msg, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (*transport.Message, error) {
		return client.GetMessage(ctx, transport.ChatRef{ID: chat.ID}, fetchID)
	})
	if err != nil {
		if errors.Is(err, transport.ErrSessionInvalidated) || ctx.Err() != nil {
			return err
		}
		result.Failed++
		e.notify(ctx, userID, fmt.Sprintf("❌ 读取消息失败: %s", link))
		return nil
	}

	if msg.IsSkippable() {
		result.Skipped++
		return nil
	}

	allowed, err := e.deps.MediaTypes.Allowed(ctx)
	if err != nil {
		logger.L().Errorf("Failed to load allowed media types: %v", err)
		allowed = models.AllMediaKinds()
	}
	if !containsKind(allowed, msg.MediaKind()) {
		result.NotAllowed++
		return nil
	}

	header := fmt.Sprintf("📥 <b>正在转存 (%d/%d)</b>\n%s", index+1, len(links), link)
	e.editStatus(ctx, status, header, transferID)

	if err := e.relay(ctx, client, msg, chat, userID, transferID, index+1, len(links), opts.IndexToNotion); err != nil {
		if transport.IsCancelled(err) || errors.Is(err, transport.ErrSessionInvalidated) || ctx.Err() != nil {
			return err
		}
		result.Failed++
		e.notify(ctx, userID, fmt.Sprintf("❌ 转存失败: %s\n%v", link, err))
		return nil
	}

	if e.deps.Registry.IsCancelled(transferID) {
		return transport.ErrStopTransmission
	}

	result.Success++

	if opts.IndexToNotion && e.deps.Indexer != nil {
		if err := e.deps.Indexer.IndexPending(ctx); err != nil {
			logger.L().Errorf("Notion indexing failed: %v", err)
		}
	}
	return nil
}

// relay 归档一条消息并分发到镜像目标
// 先进归档频道（文本直接发送，媒体下载后重新上传），再按目标逐个分发；
// 目标列表为空时退回发到用户自己的聊天。
func (e *Engine) relay(ctx context.Context, client transport.UserClient, msg *transport.Message, chat *transport.Chat, userID, transferID int64, seq, total int, index bool) error {
	targets := e.mirrorTargets(ctx, userID)

	caption := msg.CaptionOrText()

	var logSent transport.Sent
	var logFileID string
	var filePath string

	if msg.HasMedia() {
		path, archived, err := e.archiveMedia(ctx, client, msg, userID, transferID, seq, total)
		if err != nil {
			return err
		}
		filePath = path
		defer func() {
			if err := os.Remove(path); err != nil {
				logger.L().Debugf("Failed to remove temp file %s: %v", path, err)
			}
		}()
		logSent = transport.Sent{ChatID: e.opts.FilesLogChatID, MessageID: archived.ID}
		logFileID = archived.FileID
	} else {
		sent, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (transport.Sent, error) {
			return e.deps.Bot.SendMessage(ctx, e.opts.FilesLogChatID, caption, nil)
		})
		if err != nil {
			return fmt.Errorf("failed to archive text message: %w", err)
		}
		logSent = sent
	}

	// 将以付费媒体分发的内容不进索引
	paidBound := (msg.Kind == transport.KindPhoto || msg.Kind == transport.KindVideo) && hasPaidTarget(targets)
	if index && !paidBound && e.deps.Indexer != nil {
		e.recordForIndex(ctx, msg, chat, caption, filePath)
	}

	// 话题名到话题 ID 的解析结果在一次分发内复用
	topicCache := make(map[int64]*topicSet)
	for _, target := range targets {
		if e.deps.Registry.IsCancelled(transferID) {
			return transport.ErrStopTransmission
		}
		if err := e.relayToTarget(ctx, client, target, msg, logSent, logFileID, caption, topicCache); err != nil {
			return err
		}
	}
	return nil
}

// mirrorTargets 返回本次分发的目标频道
// 逐个校验机器人可见性，失效的跳过并提醒用户；没有可用频道时
// 退回用户自己的聊天。
func (e *Engine) mirrorTargets(ctx context.Context, userID int64) []*models.Channel {
	channels, err := e.deps.Channels.ListEnabledByUser(ctx, userID)
	if err != nil {
		logger.L().Errorf("Failed to list channels for user %d: %v", userID, err)
	}

	valid := make([]*models.Channel, 0, len(channels))
	for _, ch := range channels {
		if _, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (*transport.Chat, error) {
			return e.deps.Bot.GetChat(ctx, ch.ChannelID)
		}); err != nil {
			logger.L().Warnf("Channel %d not reachable: %v", ch.ChannelID, err)
			e.notify(ctx, userID, fmt.Sprintf("⚠️ 找不到频道「%s」，本次跳过", ch.Title))
			continue
		}
		valid = append(valid, ch)
	}

	if len(valid) == 0 {
		valid = append(valid, &models.Channel{ChannelID: userID})
	}
	return valid
}

// archiveMedia 下载媒体并上传到归档频道
func (e *Engine) archiveMedia(ctx context.Context, client transport.UserClient, msg *transport.Message, userID, transferID int64, seq, total int) (string, *transport.Message, error) {
	fileName := mediaFileName(msg)

	panel, err := e.deps.Bot.SendMessage(ctx, userID,
		fmt.Sprintf("⏬ 准备下载 (%d/%d)...", seq, total),
		&transport.SendOptions{ReplyMarkup: CancelMarkup(transferID)})
	if err != nil {
		return "", nil, fmt.Errorf("failed to send progress message: %w", err)
	}
	defer func() {
		if err := e.deps.Bot.DeleteMessage(context.WithoutCancel(ctx), panel.ChatID, panel.MessageID); err != nil {
			logger.L().Debugf("Failed to delete progress message: %v", err)
		}
	}()

	download := newReporter(e.deps.Bot, panel, transferID,
		fmt.Sprintf("⏬ 下载中 (%d/%d)", seq, total),
		e.opts.ProgressThreshold, e.deps.Registry.IsCancelled)
	path, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (string, error) {
		return client.Download(ctx, msg, filepath.Join(e.opts.DownloadDir, fileName), download.Callback(ctx))
	})
	if err != nil {
		return "", nil, err
	}

	upload := newReporter(e.deps.Bot, panel, transferID,
		fmt.Sprintf("⏫ 上传中 (%d/%d)", seq, total),
		e.opts.ProgressThreshold, e.deps.Registry.IsCancelled)
	archived, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (*transport.Message, error) {
		return client.Upload(ctx, e.opts.FilesLogChatID, path, transport.UploadOptions{
			Caption:  msg.CaptionOrText(),
			FileName: fileName,
		}, upload.Callback(ctx))
	})
	if err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			logger.L().Debugf("Failed to remove temp file %s: %v", path, removeErr)
		}
		return "", nil, err
	}
	return path, archived, nil
}

// recordForIndex 登记归档消息的元数据，失败只记日志不影响转存
func (e *Engine) recordForIndex(ctx context.Context, msg *transport.Message, chat *transport.Chat, caption, filePath string) {
	channelName := msg.ChatName
	if channelName == "" && chat != nil {
		channelName = chat.Title
	}

	record := &models.MessageRecord{
		MessageID:   msg.ID,
		ChatID:      msg.ChatID,
		TopicID:     msg.TopicID,
		TopicName:   msg.TopicName,
		ChannelName: channelName,
		MediaKind:   msg.MediaKind(),
		Size:        msg.FileSize,
		Caption:     caption,
		MediaTitle:  msg.FileName,
		CreatedAt:   time.Now(),
	}

	if filePath != "" {
		fileID, err := e.deps.Indexer.UploadFile(ctx, filePath)
		if err != nil {
			logger.L().Warnf("Failed to upload media to Notion: %v", err)
		} else {
			record.MediaURL = fileID
		}
	}

	if _, _, err := e.deps.Messages.Upsert(ctx, record); err != nil {
		logger.L().Errorf("Failed to upsert message record: %v", err)
	}
}

// topicSet 单个目标频道的话题解析缓存
type topicSet struct {
	forum  bool
	topics map[string]int
}

// relayToTarget 把归档副本分发到一个目标
// 话题解析先于付费媒体判定；付费媒体只覆盖照片和视频。
func (e *Engine) relayToTarget(ctx context.Context, client transport.UserClient, target *models.Channel, msg *transport.Message, logSent transport.Sent, logFileID, caption string, topicCache map[int64]*topicSet) error {
	threadID := target.TopicID
	if threadID == 0 && msg.TopicName != "" {
		id, err := e.resolveTopic(ctx, client, target.ChannelID, msg.TopicName, topicCache)
		if err != nil {
			logger.L().Warnf("Failed to resolve topic %q in chat %d: %v", msg.TopicName, target.ChannelID, err)
		} else {
			threadID = id
		}
	}

	paid := target.PaidMedia.Enabled && target.PaidMedia.Stars > 0 &&
		logFileID != "" && (msg.Kind == transport.KindPhoto || msg.Kind == transport.KindVideo)
	if paid {
		return e.invoker.Invoke(ctx, func(ctx context.Context) error {
			return e.deps.Bot.SendPaidMedia(ctx, transport.PaidMediaParams{
				ChatID:   target.ChannelID,
				Stars:    target.PaidMedia.Stars,
				FileID:   logFileID,
				Kind:     msg.Kind,
				Caption:  caption,
				ThreadID: threadID,
			})
		})
	}

	if msg.HasMedia() {
		_, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (transport.Sent, error) {
			return e.deps.Bot.CopyMessage(ctx, target.ChannelID, logSent, caption, threadID)
		})
		return err
	}

	_, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (transport.Sent, error) {
		return e.deps.Bot.SendMessage(ctx, target.ChannelID, caption, &transport.SendOptions{ThreadID: threadID})
	})
	return err
}

// resolveTopic 按名字解析目标频道的话题 ID，缺失时创建
func (e *Engine) resolveTopic(ctx context.Context, client transport.UserClient, chatID int64, name string, cache map[int64]*topicSet) (int, error) {
	set, ok := cache[chatID]
	if !ok {
		chat, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (*transport.Chat, error) {
			return e.deps.Bot.GetChat(ctx, chatID)
		})
		if err != nil {
			return 0, err
		}

		set = &topicSet{forum: chat.IsForum, topics: map[string]int{}}
		if chat.IsForum {
			topics, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (map[string]int, error) {
				return client.ListTopics(ctx, chatID)
			})
			if err != nil {
				return 0, err
			}
			set.topics = topics
		}
		cache[chatID] = set
	}

	if !set.forum {
		return 0, nil
	}
	if id, ok := set.topics[name]; ok {
		return id, nil
	}

	id, err := transport.InvokeResult(ctx, e.invoker, func(ctx context.Context) (int, error) {
		return client.CreateTopic(ctx, chatID, name)
	})
	if err != nil {
		return 0, err
	}
	set.topics[name] = id
	return id, nil
}

// hasPaidTarget 目标里是否存在启用付费媒体的频道
func hasPaidTarget(targets []*models.Channel) bool {
	for _, t := range targets {
		if t.PaidMedia.Enabled && t.PaidMedia.Stars > 0 {
			return true
		}
	}
	return false
}

// Client 取用户的委托会话客户端（批量预取时使用）
func (e *Engine) Client(ctx context.Context, userID int64) (transport.UserClient, error) {
	return e.userClient(ctx, userID)
}

// userClient 取用户的委托会话客户端
func (e *Engine) userClient(ctx context.Context, userID int64) (transport.UserClient, error) {
	user, err := e.deps.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasSession() {
		return nil, ErrNotLoggedIn
	}

	client, ok := e.deps.Sessions.Get(user.Session.ID)
	if !ok || !client.Connected() {
		return nil, ErrNotLoggedIn
	}
	return client, nil
}

// dropSession 清理已失效的委托会话
func (e *Engine) dropSession(ctx context.Context, userID int64, client transport.UserClient) {
	if err := e.deps.Users.ClearSession(context.WithoutCancel(ctx), userID); err != nil {
		logger.L().Errorf("Failed to clear session for user %d: %v", userID, err)
	}
	e.deps.Sessions.Remove(client.ID())
	e.notify(ctx, userID, "⚠️ 登录会话已失效，请重新登录后再试")
}

// notify 向用户发提示消息，失败只记日志
func (e *Engine) notify(ctx context.Context, userID int64, text string) {
	if _, err := e.deps.Bot.SendMessage(ctx, userID, text, nil); err != nil {
		logger.L().Errorf("Failed to notify user %d: %v", userID, err)
	}
}

// editStatus 更新批次状态消息，失败只记日志
func (e *Engine) editStatus(ctx context.Context, status transport.Sent, text string, transferID int64) {
	opts := &transport.SendOptions{ReplyMarkup: CancelMarkup(transferID)}
	if err := e.deps.Bot.EditMessage(ctx, status.ChatID, status.MessageID, text, opts); err != nil {
		logger.L().Debugf("Failed to edit status message: %v", err)
	}
}

// mediaFileName 归档副本的文件名
func mediaFileName(msg *transport.Message) string {
	if msg.FileName != "" {
		return msg.FileName
	}

	base := msg.FileID
	if base == "" {
		base = strconv.Itoa(msg.ID)
	}
	switch msg.Kind {
	case transport.KindPhoto:
		return base + ".jpg"
	case transport.KindVideo:
		return base + ".mp4"
	case transport.KindAudio:
		return base + ".mp3"
	default:
		return base
	}
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// sleepContext 可被上下文取消的休眠
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
