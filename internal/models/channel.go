package models

// Platform is the closed set of consultation channel platforms.
type Platform string

const (
	PlatformKakaoTalk         Platform = "KakaoTalk"
	PlatformNaverTalk         Platform = "NaverTalk"
	PlatformNaverShortlink    Platform = "NaverShortlink"
	PlatformNaverBlog         Platform = "NaverBlog"
	PlatformNaverCafe         Platform = "NaverCafe"
	PlatformNaverBooking      Platform = "NaverBooking"
	PlatformLine              Platform = "Line"
	PlatformWeChat            Platform = "WeChat"
	PlatformWhatsApp          Platform = "WhatsApp"
	PlatformTelegram          Platform = "Telegram"
	PlatformFacebookMessenger Platform = "FacebookMessenger"
	PlatformFacebook          Platform = "Facebook"
	PlatformInstagram         Platform = "Instagram"
	PlatformYouTube           Platform = "YouTube"
	PlatformPhone             Platform = "Phone"
	PlatformSMS               Platform = "SMS"
)

// ExtractionMethod records which pass discovered a channel.
type ExtractionMethod string

const (
	MethodDOMStatic           ExtractionMethod = "dom_static"
	MethodDOMDynamic          ExtractionMethod = "dom_dynamic"
	MethodIframe              ExtractionMethod = "iframe"
	MethodMapsEmbed           ExtractionMethod = "maps_embed"
	MethodStructuredData      ExtractionMethod = "structured_data"
	MethodShadowDOM           ExtractionMethod = "shadow_dom"
	MethodWidgetSDK           ExtractionMethod = "widget_sdk"
	MethodPhoneText           ExtractionMethod = "phone_text"
	MethodQRImage             ExtractionMethod = "qr_image"
	MethodWindowOpenIntercept ExtractionMethod = "window_open_intercept"
	MethodScrollTriggered     ExtractionMethod = "scroll_triggered"
	MethodSubpageScan         ExtractionMethod = "subpage_scan"
	MethodRedirectFollow      ExtractionMethod = "redirect_follow"
)

// SocialChannel is one consultation endpoint attributed to a hospital.
// Unique per (hospital_no, platform, url).
type SocialChannel struct {
	HospitalNo       int              `json:"hospital_no"`
	Platform         Platform         `json:"platform"`
	URL              string           `json:"url"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	Confidence       float64          `json:"confidence"`
	Status           string           `json:"status"`
}
