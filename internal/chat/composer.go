package chat

import (
	"context"
	"fmt"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

// guidelines tell the generator how to answer each intent.
var guidelines = map[intent.Label]string{
	intent.Reservation:     "차량 예약 방법을 단계별로 안내하세요: 앱에서 대여 장소와 시간 선택, 차종 선택, 보험 선택, 결제. 예약 변경과 취소는 '내 예약' 메뉴에서 가능합니다.",
	intent.Pricing:         "요금 구조를 설명하세요: 대여 요금(시간 단위), 주행 요금(km 단위), 보험료. 정확한 금액은 차종과 시간대에 따라 다르므로 앱의 예상 요금을 확인하도록 안내하세요.",
	intent.Usage:           "이용 방법을 안내하세요: 앱의 스마트키로 문 열기, 이용 전 차량 상태 사진 촬영, 지정된 장소에 반납 후 앱에서 반납 완료.",
	intent.Troubleshooting: "문제 상황에 공감하고 안전을 먼저 확인하세요. 사고나 고장은 고객센터(1588-0000) 연결을 권하고, 앱 문제는 재설치와 최신 버전 업데이트를 안내하세요.",
	intent.Account:         "계정 관련 도움을 주세요: 비밀번호 재설정, 면허 정보 등록, 결제 수단 변경은 '마이페이지'에서 가능합니다. 개인정보를 채팅으로 요구하지 마세요.",
	intent.Greeting:        "밝게 인사하고 MOCA 챗봇이 예약, 요금, 이용 방법, 문제 해결을 도와줄 수 있다고 소개하세요.",
	intent.Thanks:          "감사 인사에 짧게 답하고 더 궁금한 점이 있는지 물어보세요.",
	intent.Other:           "MOCA 서비스와 관련 없는 질문일 수 있습니다. 정중하게 도울 수 있는 범위(예약, 요금, 이용 방법, 문제 해결, 계정)를 알려주세요.",
}

const persona = "당신은 카셰어링 서비스 MOCA(모카)의 고객지원 챗봇입니다. 한국어로 간결하고 친절하게 3문장 이내로 답하세요."

// Generator produces reply text; failures are already mapped to an apology.
type Generator interface {
	Generate(ctx context.Context, prompt, conversation string) string
}

// Guideline returns the answering instruction for label.
func Guideline(label intent.Label) string {
	if g, ok := guidelines[label]; ok {
		return g
	}
	return guidelines[intent.Other]
}

// BuildPrompt assembles the generator prompt for one user turn.
func BuildPrompt(label intent.Label, message string) string {
	return fmt.Sprintf("%s\n\n[의도] %s\n[가이드라인] %s\n\n[사용자 질문]\n%s", persona, label, Guideline(label), message)
}

// Compose produces the reply text for a decided intent.
func Compose(ctx context.Context, gen Generator, label intent.Label, message, conversation string) string {
	return gen.Generate(ctx, BuildPrompt(label, message), conversation)
}
