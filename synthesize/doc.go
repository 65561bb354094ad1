// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
Package synthesize 实现语音合成入口的业务流程。

Adapter 校验 token，按 JSON → query → 默认值 解析 text 与 language_code，
以 NEUTRAL 声音和固定编码（默认 OGG_OPUS）发起一次合成调用，
返回音频字节与下载用的 Content-Type / Content-Disposition 头。
text 可以为空或包含 SSML，本地不做校验。
*/
package synthesize
